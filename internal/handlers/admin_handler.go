package handlers

import (
	"errors"
	"log"

	"github.com/conadsciacca/totem-voti/internal/middleware"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles roster management for the admin of one store.
type AdminHandler struct {
	employeeService *services.EmployeeService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(employeeService *services.EmployeeService) *AdminHandler {
	return &AdminHandler{
		employeeService: employeeService,
	}
}

// RegisterRoutes registers the admin roster routes behind the admin guard.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, authService *services.AuthService) {
	admin := router.Group("", middleware.SessionRequired(authService, models.RoleAdmin))
	admin.Get("/admin", h.HandleAdminPage)
	admin.Post("/admin", h.HandleCreateEmployee)
	admin.Post("/delete/:dipendente", h.HandleDeleteEmployee)
	admin.Post("/edit/:dipendente", h.HandleEditEmployee)
}

// HandleAdminPage lists the admin's roster.
func (h *AdminHandler) HandleAdminPage(c *fiber.Ctx) error {
	store := middleware.SessionStore(c)
	employees, err := h.employeeService.List(store)
	if err != nil {
		log.Printf("Error listing employees for store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve employees",
		})
	}
	return c.JSON(fiber.Map{
		"dipendenti": employees,
	})
}

// HandleCreateEmployee creates a new employee from the multipart admin
// form. An empty name or a disallowed photo extension re-shows the admin
// page without an error banner.
func (h *AdminHandler) HandleCreateEmployee(c *fiber.Ctx) error {
	store := middleware.SessionStore(c)
	nome := c.FormValue("nome")
	foto, err := c.FormFile("foto")
	if err != nil {
		foto = nil
	}

	if _, err := h.employeeService.Create(store, nome, foto); err != nil {
		if errors.Is(err, services.ErrNameRequired) || errors.Is(err, services.ErrPhotoExtension) {
			return h.HandleAdminPage(c)
		}
		log.Printf("Error creating employee in store %s: %v", store, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create employee",
		})
	}
	return c.Redirect("/admin", fiber.StatusFound)
}

// HandleDeleteEmployee deletes an employee of the admin's store. An id
// belonging to another store is a silent no-op.
func (h *AdminHandler) HandleDeleteEmployee(c *fiber.Ctx) error {
	employeeID, err := c.ParamsInt("dipendente")
	if err != nil || employeeID < 1 {
		return c.Redirect("/admin", fiber.StatusFound)
	}

	store := middleware.SessionStore(c)
	if err := h.employeeService.Delete(store, uint(employeeID)); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			log.Printf("Error deleting employee %d in store %s: %v", employeeID, store, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not delete employee",
			})
		}
	}
	return c.Redirect("/admin", fiber.StatusFound)
}

// HandleEditEmployee renames an employee and optionally replaces their
// photo. Cross-tenant ids and invalid input are silent no-ops.
func (h *AdminHandler) HandleEditEmployee(c *fiber.Ctx) error {
	employeeID, err := c.ParamsInt("dipendente")
	if err != nil || employeeID < 1 {
		return c.Redirect("/admin", fiber.StatusFound)
	}

	store := middleware.SessionStore(c)
	nome := c.FormValue("nome")
	foto, err := c.FormFile("foto")
	if err != nil {
		foto = nil
	}

	if err := h.employeeService.Update(store, uint(employeeID), nome, foto); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			log.Printf("Error editing employee %d in store %s: %v", employeeID, store, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not edit employee",
			})
		}
	}
	return c.Redirect("/admin", fiber.StatusFound)
}
