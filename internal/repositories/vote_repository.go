package repositories

import (
	"errors"

	"github.com/conadsciacca/totem-voti/internal/models"
)

// ErrDuplicateVote is returned by Create when the (fidelity, employee)
// pair already has a vote. Callers treat it as an idempotent no-op.
var ErrDuplicateVote = errors.New("vote already recorded for this fidelity code and employee")

// DateFilter restricts report queries to votes of the current year whose
// date matches the given day and/or month. Zero means "not filtered".
type DateFilter struct {
	Day   int
	Month int
}

// VoteRepository defines the interface for vote data access.
type VoteRepository interface {
	Create(vote *models.Vote) error
	VotedEmployeeIDs(fidelity string) ([]uint, error)
	StatsByStore(store string, filter DateFilter) ([]models.EmployeeStats, error)
	ExportByStore(store string, filter DateFilter) ([]models.VoteExportRow, error)
	DeleteByEmployee(employeeID uint) error
	DeleteByDateAndStore(date, store string) (int64, error)
}
