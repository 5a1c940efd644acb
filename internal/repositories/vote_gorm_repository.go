package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/conadsciacca/totem-voti/internal/models"

	"gorm.io/gorm"
)

// GORMVoteRepository is a GORM implementation of VoteRepository.
// The database must be opened with TranslateError so that unique-index
// violations surface as gorm.ErrDuplicatedKey on both SQLite and Postgres.
type GORMVoteRepository struct {
	db *gorm.DB
}

// NewGORMVoteRepository creates a new instance of GORMVoteRepository.
func NewGORMVoteRepository(db *gorm.DB) *GORMVoteRepository {
	return &GORMVoteRepository{
		db: db,
	}
}

// Create inserts a vote. A violation of the (fidelity_code, employee_id)
// unique index is reported as ErrDuplicateVote.
func (r *GORMVoteRepository) Create(vote *models.Vote) error {
	if err := r.db.Create(vote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateVote
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

// VotedEmployeeIDs returns the ids of employees already rated by the
// given fidelity code.
func (r *GORMVoteRepository) VotedEmployeeIDs(fidelity string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Vote{}).
		Where("fidelity_code = ?", fidelity).
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get voted employee ids for fidelity %s: %w", fidelity, err)
	}
	return ids, nil
}

// StatsByStore aggregates vote count and average score per employee of a
// store. Employees without matching votes appear with count 0 and a nil
// average. The date filter goes into the join condition so that the left
// join keeps zero-vote employees.
func (r *GORMVoteRepository) StatsByStore(store string, filter DateFilter) ([]models.EmployeeStats, error) {
	join := "LEFT JOIN votes ON votes.employee_id = employees.id"
	args := []interface{}{}
	if cond, condArgs := filter.condition(); cond != "" {
		join += " AND " + cond
		args = append(args, condArgs...)
	}
	args = append(args, store)

	query := "SELECT employees.id AS employee_id, employees.name AS employee_name, " +
		"COUNT(votes.id) AS vote_count, ROUND(AVG(votes.score), 2) AS average_score " +
		"FROM employees " + join + " " +
		"WHERE employees.store = ? " +
		"GROUP BY employees.id, employees.name " +
		"ORDER BY employees.name"

	var stats []models.EmployeeStats
	if err := r.db.Raw(query, args...).Scan(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate stats for store %s: %w", store, err)
	}
	return stats, nil
}

// ExportByStore returns one row per vote of a store, matching the same
// date filter semantics as StatsByStore.
func (r *GORMVoteRepository) ExportByStore(store string, filter DateFilter) ([]models.VoteExportRow, error) {
	query := "SELECT employees.name AS employee_name, votes.score, votes.vote_date " +
		"FROM votes JOIN employees ON employees.id = votes.employee_id " +
		"WHERE employees.store = ?"
	args := []interface{}{store}
	if cond, condArgs := filter.condition(); cond != "" {
		query += " AND " + cond
		args = append(args, condArgs...)
	}
	query += " ORDER BY votes.vote_date, employees.name"

	var rows []models.VoteExportRow
	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to export votes for store %s: %w", store, err)
	}
	return rows, nil
}

// DeleteByEmployee removes every vote referencing an employee. Used when
// the employee itself is being deleted.
func (r *GORMVoteRepository) DeleteByEmployee(employeeID uint) error {
	if err := r.db.Where("employee_id = ?", employeeID).Delete(&models.Vote{}).Error; err != nil {
		return fmt.Errorf("failed to delete votes of employee %d: %w", employeeID, err)
	}
	return nil
}

// DeleteByDateAndStore removes every vote of the given date that belongs
// to an employee of the given store, returning the number of rows removed.
func (r *GORMVoteRepository) DeleteByDateAndStore(date, store string) (int64, error) {
	sub := r.db.Model(&models.Employee{}).Select("id").Where("store = ?", store)
	res := r.db.Where("vote_date = ? AND employee_id IN (?)", date, sub).Delete(&models.Vote{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete votes of %s for store %s: %w", date, store, res.Error)
	}
	return res.RowsAffected, nil
}

// condition builds the SQL restriction for a DateFilter. All filters are
// anchored to the current year; dates are fixed-width YYYY-MM-DD strings,
// so LIKE patterns behave the same on SQLite and Postgres.
func (f DateFilter) condition() (string, []interface{}) {
	year := time.Now().Year()
	switch {
	case f.Day > 0 && f.Month > 0:
		return "votes.vote_date = ?", []interface{}{fmt.Sprintf("%04d-%02d-%02d", year, f.Month, f.Day)}
	case f.Month > 0:
		return "votes.vote_date LIKE ?", []interface{}{fmt.Sprintf("%04d-%02d-%%", year, f.Month)}
	case f.Day > 0:
		return "votes.vote_date LIKE ?", []interface{}{fmt.Sprintf("%04d-__-%02d", year, f.Day)}
	}
	return "", nil
}
