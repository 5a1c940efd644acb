package services

import (
	"encoding/json"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/pkg/rabbitmq"
)

// ErrInvalidFidelity is returned when a scanned code is not exactly
// 13 digits.
var ErrInvalidFidelity = errors.New("fidelity code must be 13 digits")

var fidelityPattern = regexp.MustCompile(`^[0-9]{13}$`)

// VoteService records customer ratings. Submission is idempotent per
// (fidelity, employee) pair.
type VoteService struct {
	voteRepo repositories.VoteRepository
	mqClient *rabbitmq.Client
}

// NewVoteService creates a new VoteService. mqClient may be nil, in which
// case no events are published.
func NewVoteService(voteRepo repositories.VoteRepository, mqClient *rabbitmq.Client) *VoteService {
	return &VoteService{
		voteRepo: voteRepo,
		mqClient: mqClient,
	}
}

// ValidateFidelity checks the scanned code format.
func (s *VoteService) ValidateFidelity(code string) error {
	if !fidelityPattern.MatchString(code) {
		return ErrInvalidFidelity
	}
	return nil
}

// Submit records a vote dated today. A duplicate (fidelity, employee)
// pair returns repositories.ErrDuplicateVote and leaves the stored score
// untouched; callers treat that as success.
func (s *VoteService) Submit(fidelity string, employeeID uint, score int) (*models.Vote, error) {
	if err := s.ValidateFidelity(fidelity); err != nil {
		return nil, err
	}

	vote := &models.Vote{
		FidelityCode: fidelity,
		EmployeeID:   employeeID,
		Score:        score,
		VoteDate:     time.Now().Format(models.VoteDateLayout),
	}
	if err := s.voteRepo.Create(vote); err != nil {
		return nil, err
	}

	if s.mqClient != nil {
		event := map[string]interface{}{
			"employee_id": vote.EmployeeID,
			"score":       vote.Score,
			"vote_date":   vote.VoteDate,
		}
		body, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal vote event: %v", err)
		} else if err := s.mqClient.PublishVoteRecorded(body); err != nil {
			// The vote is already durable; a lost event is only a
			// missed analytics signal.
			log.Printf("Warning: failed to publish vote event for employee %d: %v", vote.EmployeeID, err)
		}
	}

	return vote, nil
}

// VotedEmployeeIDs returns the employee ids already rated by a fidelity
// code, used to suppress re-voting in the presented list.
func (s *VoteService) VotedEmployeeIDs(fidelity string) ([]uint, error) {
	return s.voteRepo.VotedEmployeeIDs(fidelity)
}
