package repositories

import (
	"sort"
	"sync"

	"github.com/conadsciacca/totem-voti/internal/models"
)

// MockVoteRepository is an in-memory implementation of VoteRepository.
// Report queries join against the given employee repository, mirroring
// the SQL the GORM implementation runs.
type MockVoteRepository struct {
	votes     map[uint]models.Vote
	nextID    uint
	employees *MockEmployeeRepository
	mu        sync.RWMutex
}

// NewMockVoteRepository creates a new instance of MockVoteRepository.
func NewMockVoteRepository(employees *MockEmployeeRepository) *MockVoteRepository {
	return &MockVoteRepository{
		votes:     make(map[uint]models.Vote),
		nextID:    1,
		employees: employees,
	}
}

// Create adds a vote, enforcing the (fidelity, employee) uniqueness the
// database index provides in the GORM implementation.
func (r *MockVoteRepository) Create(vote *models.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.votes {
		if v.FidelityCode == vote.FidelityCode && v.EmployeeID == vote.EmployeeID {
			return ErrDuplicateVote
		}
	}
	if vote.ID == 0 {
		vote.ID = r.nextID
		r.nextID++
	}
	r.votes[vote.ID] = *vote
	return nil
}

// VotedEmployeeIDs returns the employee ids already rated by a fidelity code.
func (r *MockVoteRepository) VotedEmployeeIDs(fidelity string) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint, 0)
	for _, v := range r.votes {
		if v.FidelityCode == fidelity {
			ids = append(ids, v.EmployeeID)
		}
	}
	return ids, nil
}

// StatsByStore aggregates vote count and average per employee of a store.
func (r *MockVoteRepository) StatsByStore(store string, filter DateFilter) ([]models.EmployeeStats, error) {
	employees, err := r.employees.GetAllByStore(store)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make([]models.EmployeeStats, 0, len(employees))
	for _, e := range employees {
		row := models.EmployeeStats{EmployeeID: e.ID, EmployeeName: e.Name}
		sum := 0
		for _, v := range r.votes {
			if v.EmployeeID == e.ID && matchesFilter(v.VoteDate, filter) {
				row.VoteCount++
				sum += v.Score
			}
		}
		if row.VoteCount > 0 {
			avg := round2(float64(sum) / float64(row.VoteCount))
			row.AverageScore = &avg
		}
		stats = append(stats, row)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].EmployeeName < stats[j].EmployeeName })
	return stats, nil
}

// ExportByStore returns one row per matching vote of a store.
func (r *MockVoteRepository) ExportByStore(store string, filter DateFilter) ([]models.VoteExportRow, error) {
	employees, err := r.employees.GetAllByStore(store)
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]models.VoteExportRow, 0)
	for _, v := range r.votes {
		name, ok := names[v.EmployeeID]
		if !ok || !matchesFilter(v.VoteDate, filter) {
			continue
		}
		rows = append(rows, models.VoteExportRow{EmployeeName: name, Score: v.Score, VoteDate: v.VoteDate})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].VoteDate != rows[j].VoteDate {
			return rows[i].VoteDate < rows[j].VoteDate
		}
		return rows[i].EmployeeName < rows[j].EmployeeName
	})
	return rows, nil
}

// DeleteByEmployee removes every vote referencing an employee.
func (r *MockVoteRepository) DeleteByEmployee(employeeID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.votes {
		if v.EmployeeID == employeeID {
			delete(r.votes, id)
		}
	}
	return nil
}

// DeleteByDateAndStore removes votes of one date belonging to one store.
func (r *MockVoteRepository) DeleteByDateAndStore(date, store string) (int64, error) {
	employees, err := r.employees.GetAllByStore(store)
	if err != nil {
		return 0, err
	}
	owned := make(map[uint]bool, len(employees))
	for _, e := range employees {
		owned[e.ID] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, v := range r.votes {
		if v.VoteDate == date && owned[v.EmployeeID] {
			delete(r.votes, id)
			deleted++
		}
	}
	return deleted, nil
}

// matchesFilter mirrors DateFilter.condition for in-memory votes.
func matchesFilter(voteDate string, filter DateFilter) bool {
	if filter.Day == 0 && filter.Month == 0 {
		return true
	}
	if len(voteDate) != 10 {
		return false
	}
	cond, args := filter.condition()
	pattern := args[0].(string)
	if cond == "votes.vote_date = ?" {
		return voteDate == pattern
	}
	// LIKE patterns over fixed-width dates: compare byte-wise, with
	// '_' matching any character and a trailing '%' matching the rest.
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '%':
			return true
		case '_':
			continue
		default:
			if voteDate[i] != pattern[i] {
				return false
			}
		}
	}
	return len(pattern) == len(voteDate)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
