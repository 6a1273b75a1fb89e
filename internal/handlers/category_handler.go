package handlers

import (
	"tokocommerce/internal/middleware"
	"tokocommerce/internal/models"
	"tokocommerce/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service  *services.CategoryService
	validate *validator.Validate
	log      *zap.Logger
}

func NewCategoryHandler(service *services.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, validate: NewValidator(), log: log}
}

func (h *CategoryHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	categoryRoutes := router.Group("/categories", authRequired)
	categoryRoutes.Get("/", h.HandleGetCategories)
	categoryRoutes.Post("/", middleware.RequireRole(models.RoleAdmin), h.HandleCreateCategory)
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (h *CategoryHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.service.GetAllCategories(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	category, err := h.service.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return respondError(c, h.log, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Category created successfully",
		"category": category,
	})
}
