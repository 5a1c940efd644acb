package services_test

import (
	"encoding/csv"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/stretchr/testify/assert"
)

func newReportFixture(t *testing.T) (*services.ReportService, *repositories.MockVoteRepository, *repositories.MockEmployeeRepository) {
	t.Helper()
	employeeRepo := repositories.NewMockEmployeeRepository()
	voteRepo := repositories.NewMockVoteRepository(employeeRepo)
	return services.NewReportService(voteRepo), voteRepo, employeeRepo
}

func TestReportService_ExportCSV(t *testing.T) {
	svc, voteRepo, employeeRepo := newReportFixture(t)

	e := &models.Employee{Name: "Anna", Store: "pdv_sciacca"}
	assert.NoError(t, employeeRepo.Create(e))
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "1111111111111", EmployeeID: e.ID, Score: 5, VoteDate: "2025-03-01"}))
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "2222222222222", EmployeeID: e.ID, Score: 3, VoteDate: "2025-03-02"}))

	data, err := svc.ExportCSV("pdv_sciacca", repositories.DateFilter{})
	assert.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3) // header + one row per vote

	// Canonical column set: no fidelity code in the export.
	assert.Equal(t, []string{"dipendente", "voto", "data"}, records[0])
	assert.Equal(t, []string{"Anna", "5", "2025-03-01"}, records[1])
	assert.Equal(t, []string{"Anna", "3", "2025-03-02"}, records[2])
}

func TestReportService_ExportRowCountMatchesStats(t *testing.T) {
	svc, voteRepo, employeeRepo := newReportFixture(t)

	e := &models.Employee{Name: "Anna", Store: "pdv_sciacca"}
	assert.NoError(t, employeeRepo.Create(e))

	today := time.Now().Format(models.VoteDateLayout)
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "1111111111111", EmployeeID: e.ID, Score: 4, VoteDate: today}))
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "2222222222222", EmployeeID: e.ID, Score: 2, VoteDate: "2000-01-01"}))

	filter := repositories.DateFilter{Day: time.Now().Day(), Month: int(time.Now().Month())}
	stats, err := svc.Stats("pdv_sciacca", filter)
	assert.NoError(t, err)
	assert.Len(t, stats, 1)

	data, err := svc.ExportCSV("pdv_sciacca", filter)
	assert.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, stats[0].VoteCount, len(records)-1)
}

func TestReportService_ExportFilename(t *testing.T) {
	svc, _, _ := newReportFixture(t)
	expected := fmt.Sprintf("voti_%s.csv", time.Now().Format("20060102"))
	assert.Equal(t, expected, svc.ExportFilename())
}

func TestReportService_ResetToday(t *testing.T) {
	svc, voteRepo, employeeRepo := newReportFixture(t)

	mine := &models.Employee{Name: "Anna", Store: "pdv_sciacca"}
	theirs := &models.Employee{Name: "Carla", Store: "pdv_sancipirello"}
	assert.NoError(t, employeeRepo.Create(mine))
	assert.NoError(t, employeeRepo.Create(theirs))

	today := time.Now().Format(models.VoteDateLayout)
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "1111111111111", EmployeeID: mine.ID, Score: 5, VoteDate: today}))
	assert.NoError(t, voteRepo.Create(&models.Vote{FidelityCode: "2222222222222", EmployeeID: theirs.ID, Score: 4, VoteDate: today}))

	deleted, err := svc.ResetToday("pdv_sciacca")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	// Reset is tenant-scoped: the other store keeps today's votes.
	rows, err := voteRepo.ExportByStore("pdv_sancipirello", repositories.DateFilter{})
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
}
