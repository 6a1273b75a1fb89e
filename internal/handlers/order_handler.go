package handlers

import (
	"fmt"

	"tokocommerce/internal/middleware"
	"tokocommerce/internal/models"
	"tokocommerce/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HeaderIdempotencyKey makes order placement safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
	log      *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: NewValidator(),
		log:      log,
	}
}

// RegisterRoutes registers the order routes. Every route needs a token.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	orderRoutes := router.Group("/orders", authRequired)
	userOnly := middleware.RequireRole(models.RoleUser)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	orderRoutes.Post("/", userOnly, h.HandleCreateOrder)
	orderRoutes.Get("/", adminOnly, h.HandleGetOrders)
	orderRoutes.Get("/my-orders", userOnly, h.HandleGetMyOrders)
	orderRoutes.Put("/update/:orderId", adminOnly, h.HandleUpdateOrderStatus)
	orderRoutes.Delete("/cancel/:orderId", h.HandleCancelOrder)
	orderRoutes.Get("/:orderId", h.HandleGetOrderByID)
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Items []models.OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, replayed, err := h.service.PlaceOrderWithKey(c.UserContext(), identity(c), c.Get(HeaderIdempotencyKey), req.Items)
	if err != nil {
		return respondError(c, h.log, "Order creation failed", err)
	}

	if replayed {
		c.Set("Idempotent-Replayed", "true")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Order already created",
			"order":   order,
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created successfully",
		"order":   order,
	})
}

// HandleGetOrders retrieves all orders.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAllOrders(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetMyOrders retrieves the caller's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrdersForUser(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), identity(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// UpdateOrderStatusRequest is the body of PUT /orders/update/:orderId.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("orderId")
	var req UpdateOrderStatusRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), orderID, req.Status)
	if err != nil {
		return respondError(c, h.log, "Order update failed", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, req.Status),
		"order":   order,
	})
}

// HandleCancelOrder cancels an order of the caller, or any order for an admin.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	order, err := h.service.CancelOrder(c.UserContext(), identity(c), c.Params("orderId"))
	if err != nil {
		return respondError(c, h.log, "Order cancellation failed", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order canceled successfully",
		"order":   order,
	})
}
