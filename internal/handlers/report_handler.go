package handlers

import (
	"log"

	"github.com/conadsciacca/totem-voti/internal/middleware"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles admin statistics, CSV export and today's reset.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// RegisterRoutes registers the reporting routes behind the admin guard.
func (h *ReportHandler) RegisterRoutes(router fiber.Router, authService *services.AuthService) {
	admin := router.Group("", middleware.SessionRequired(authService, models.RoleAdmin))
	admin.Get("/stats", h.HandleStats)
	admin.Get("/export_csv", h.HandleExportCSV)
	admin.Post("/reset_voti", h.HandleResetToday)
}

// dateFilter reads the optional giorno/mese query parameters. Values out
// of calendar range are ignored rather than erroring.
func dateFilter(c *fiber.Ctx) repositories.DateFilter {
	filter := repositories.DateFilter{
		Day:   c.QueryInt("giorno", 0),
		Month: c.QueryInt("mese", 0),
	}
	if filter.Day < 1 || filter.Day > 31 {
		filter.Day = 0
	}
	if filter.Month < 1 || filter.Month > 12 {
		filter.Month = 0
	}
	return filter
}

// HandleStats serves per-employee vote counts and averages, optionally
// filtered by day/month of the current year.
func (h *ReportHandler) HandleStats(c *fiber.Ctx) error {
	store := middleware.SessionStore(c)
	stats, err := h.reportService.Stats(store, dateFilter(c))
	if err != nil {
		log.Printf("Error aggregating stats for store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not aggregate statistics",
		})
	}
	return c.JSON(fiber.Map{
		"stats": stats,
	})
}

// HandleExportCSV streams the votes matching the filter as a CSV download.
func (h *ReportHandler) HandleExportCSV(c *fiber.Ctx) error {
	store := middleware.SessionStore(c)
	data, err := h.reportService.ExportCSV(store, dateFilter(c))
	if err != nil {
		log.Printf("Error exporting CSV for store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not export votes",
		})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+h.reportService.ExportFilename()+`"`)
	return c.Send(data)
}

// HandleResetToday deletes today's votes for the admin's store.
func (h *ReportHandler) HandleResetToday(c *fiber.Ctx) error {
	store := middleware.SessionStore(c)
	deleted, err := h.reportService.ResetToday(store)
	if err != nil {
		log.Printf("Error resetting today's votes for store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not reset votes",
		})
	}
	log.Printf("Reset %d votes of today for store %s", deleted, store)
	return c.Redirect("/stats", fiber.StatusFound)
}
