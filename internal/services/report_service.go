package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
)

// csvHeader is the canonical export column set. The fidelity code is
// deliberately not exported.
var csvHeader = []string{"dipendente", "voto", "data"}

// ReportService produces admin statistics and CSV exports.
type ReportService struct {
	voteRepo repositories.VoteRepository
}

// NewReportService creates a new ReportService.
func NewReportService(voteRepo repositories.VoteRepository) *ReportService {
	return &ReportService{
		voteRepo: voteRepo,
	}
}

// Stats aggregates vote count and average score per employee of a store,
// optionally filtered by day/month of the current year. Employees with
// no matching votes appear with count 0 and a nil average.
func (s *ReportService) Stats(store string, filter repositories.DateFilter) ([]models.EmployeeStats, error) {
	return s.voteRepo.StatsByStore(store, filter)
}

// ExportCSV serializes the votes matching the filter, one row per vote.
func (s *ReportService) ExportCSV(store string, filter repositories.DateFilter) ([]byte, error) {
	rows, err := s.voteRepo.ExportByStore(store, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.EmployeeName, strconv.Itoa(row.Score), row.VoteDate}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename returns the download name for today's export.
func (s *ReportService) ExportFilename() string {
	return fmt.Sprintf("voti_%s.csv", time.Now().Format("20060102"))
}

// ResetToday deletes today's votes for the given store only. The legacy
// implementation deleted across all stores; this is the standardized
// tenant-scoped behavior.
func (s *ReportService) ResetToday(store string) (int64, error) {
	today := time.Now().Format(models.VoteDateLayout)
	return s.voteRepo.DeleteByDateAndStore(today, store)
}
