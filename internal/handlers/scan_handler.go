package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/conadsciacca/totem-voti/internal/middleware"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ScanHandler handles the customer-facing totem flow: scanning a
// fidelity card, listing employees and submitting votes. All routes
// require a store-role session.
type ScanHandler struct {
	employeeService *services.EmployeeService
	voteService     *services.VoteService
	validate        *validator.Validate
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(employeeService *services.EmployeeService, voteService *services.VoteService) *ScanHandler {
	return &ScanHandler{
		employeeService: employeeService,
		voteService:     voteService,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the totem routes behind the store-role guard.
func (h *ScanHandler) RegisterRoutes(router fiber.Router, authService *services.AuthService) {
	store := router.Group("", middleware.SessionRequired(authService, models.RoleStore))
	store.Get("/", h.HandleScanPage)
	store.Post("/", h.HandleScan)
	store.Post("/scan", h.HandleScan)
	store.Get("/dipendenti/:fidelity", h.HandleEmployeeList)
	store.Get("/vota/:fidelity/:dipendente", h.HandleVotePage)
	store.Post("/vota/:fidelity/:dipendente", h.HandleVote)
}

// HandleScanPage serves the scan form.
func (h *ScanHandler) HandleScanPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page": "scan",
	})
}

// HandleScan accepts a scanned fidelity code. A code that is not exactly
// 13 digits silently re-shows the scan form.
func (h *ScanHandler) HandleScan(c *fiber.Ctx) error {
	codice := c.FormValue("codice")
	if err := h.voteService.ValidateFidelity(codice); err != nil {
		return h.HandleScanPage(c)
	}
	return c.Redirect("/dipendenti/"+codice, fiber.StatusFound)
}

// HandleEmployeeList lists the store's employees together with the ids
// this fidelity code already voted for.
func (h *ScanHandler) HandleEmployeeList(c *fiber.Ctx) error {
	fidelity := c.Params("fidelity")
	if err := h.voteService.ValidateFidelity(fidelity); err != nil {
		return c.Redirect("/", fiber.StatusFound)
	}

	store := middleware.SessionStore(c)
	employees, err := h.employeeService.List(store)
	if err != nil {
		log.Printf("Error listing employees for store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve employees",
		})
	}

	voted, err := h.voteService.VotedEmployeeIDs(fidelity)
	if err != nil {
		log.Printf("Error listing voted employees for fidelity %s: %v", fidelity, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve votes",
		})
	}

	return c.JSON(fiber.Map{
		"fidelity":   fidelity,
		"dipendenti": employees,
		"votati":     voted,
	})
}

// HandleVotePage shows the employee being voted.
func (h *ScanHandler) HandleVotePage(c *fiber.Ctx) error {
	fidelity := c.Params("fidelity")
	employeeID, err := c.ParamsInt("dipendente")
	if err != nil || employeeID < 1 {
		return c.Redirect("/dipendenti/"+fidelity, fiber.StatusFound)
	}

	employee, err := h.employeeService.Get(middleware.SessionStore(c), uint(employeeID))
	if err != nil {
		return c.Redirect("/dipendenti/"+fidelity, fiber.StatusFound)
	}

	return c.JSON(fiber.Map{
		"fidelity":   fidelity,
		"dipendente": employee,
	})
}

// VoteRequest represents the vote form.
type VoteRequest struct {
	Voto int `form:"voto" validate:"required,min=1,max=5"`
}

// HandleVote records a vote. A duplicate vote for the same pair is
// reported as success without touching the stored score.
func (h *ScanHandler) HandleVote(c *fiber.Ctx) error {
	fidelity := c.Params("fidelity")
	employeeID, err := c.ParamsInt("dipendente")
	if err != nil || employeeID < 1 {
		return c.Redirect("/dipendenti/"+fidelity, fiber.StatusFound)
	}

	voto, err := strconv.Atoi(c.FormValue("voto"))
	if err != nil {
		return h.HandleVotePage(c)
	}
	req := VoteRequest{Voto: voto}
	if err := h.validate.Struct(req); err != nil {
		// Out-of-range or missing score re-shows the vote form.
		return h.HandleVotePage(c)
	}

	// Only employees of the caller's store are rateable.
	if _, err := h.employeeService.Get(middleware.SessionStore(c), uint(employeeID)); err != nil {
		return c.Redirect("/dipendenti/"+fidelity, fiber.StatusFound)
	}

	if _, err := h.voteService.Submit(fidelity, uint(employeeID), req.Voto); err != nil {
		if errors.Is(err, services.ErrInvalidFidelity) {
			return c.Redirect("/", fiber.StatusFound)
		}
		if !errors.Is(err, repositories.ErrDuplicateVote) {
			log.Printf("Error submitting vote for employee %d: %v", employeeID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not record vote",
			})
		}
		// Already voted: idempotent success.
	}

	return c.Redirect("/dipendenti/"+fidelity, fiber.StatusFound)
}
