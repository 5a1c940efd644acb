package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/conadsciacca/totem-voti/internal/middleware"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
}

// LoginRequest represents the login form.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// HandleLoginPage serves the login page data.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"page": "login",
	})
}

// HandleLogin authenticates a username/password pair, sets the session
// cookie and redirects by role. Failures are a generic 401: unknown user
// and wrong password are indistinguishable.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	req := LoginRequest{
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnauthorized).SendString("Credenziali errate")
	}

	token, role, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Printf("Error during login for user %s: %v", req.Username, err)
		}
		return c.Status(fiber.StatusUnauthorized).SendString("Credenziali errate")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(12 * time.Hour),
	})

	if role == models.RoleAdmin {
		return c.Redirect("/admin", fiber.StatusFound)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		HTTPOnly: true,
		Expires:  time.Now().Add(-time.Hour),
	})
	return c.Redirect("/login", fiber.StatusFound)
}
