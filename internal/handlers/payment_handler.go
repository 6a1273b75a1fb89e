package handlers

import (
	"tokocommerce/internal/middleware"
	"tokocommerce/internal/models"
	"tokocommerce/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	service  *services.PaymentService
	validate *validator.Validate
	log      *zap.Logger
}

func NewPaymentHandler(service *services.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, validate: NewValidator(), log: log}
}

func (h *PaymentHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	router.Post("/payments", authRequired, middleware.RequireRole(models.RoleUser), h.HandleCreatePayment)
}

// CreatePaymentRequest is the body of POST /payments. Status defaults to paid.
type CreatePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Status  string `json:"status" validate:"omitempty,oneof=paid pending failed"`
}

func (h *PaymentHandler) HandleCreatePayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	payment, err := h.service.RecordPayment(c.UserContext(), req.OrderID, req.Status)
	if err != nil {
		return respondError(c, h.log, "Payment failed", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Payment created successfully",
		"payment": payment,
	})
}
