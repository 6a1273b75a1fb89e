package handlers

import (
	"tokocommerce/internal/middleware"
	"tokocommerce/internal/models"
	"tokocommerce/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserHandler serves the caller's own profile and the protected greeting routes.
type UserHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewUserHandler(authService *services.AuthService, log *zap.Logger) *UserHandler {
	return &UserHandler{authService: authService, log: log}
}

func (h *UserHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Get("/users/my-info", authRequired, h.HandleMyInfo)

	protected := router.Group("/protected", authRequired)
	protected.Get("/user", h.HandleWelcome("welcome user"))
	protected.Get("/admin", middleware.RequireRole(models.RoleAdmin), h.HandleWelcome("welcome admin"))
}

func (h *UserHandler) HandleMyInfo(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

func (h *UserHandler) HandleWelcome(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": message,
			"user":    identity(c),
		})
	}
}
