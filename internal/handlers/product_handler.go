package handlers

import (
	"tokocommerce/internal/middleware"
	"tokocommerce/internal/models"
	"tokocommerce/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{service: service, validate: NewValidator(), log: log}
}

// RegisterRoutes registers the product routes. Reads are public; writes need
// the admin role.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	adminOnly := []fiber.Handler{authRequired, middleware.RequireRole(models.RoleAdmin)}
	productRoutes.Post("/", append(adminOnly, h.HandleCreateProduct)...)
	productRoutes.Put("/:id", append(adminOnly, h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", append(adminOnly, h.HandleDeleteProduct)...)
}

// ProductRequest is the body for creating or updating a product.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,min=3,max=100"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	CategoryID    *string         `json:"category_id"`
}

func (r ProductRequest) toModel() *models.Product {
	return &models.Product{
		Name:          r.Name,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		CategoryID:    r.CategoryID,
	}
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, "Could not retrieve product", err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product sold by the calling admin.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	product := req.toModel()
	if err := h.service.CreateProduct(c.UserContext(), identity(c), product); err != nil {
		return respondError(c, h.log, "Could not create product", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleUpdateProduct replaces the editable fields of a product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	product := req.toModel()
	product.ID = c.Params("id")
	updated, err := h.service.UpdateProduct(c.UserContext(), product)
	if err != nil {
		return respondError(c, h.log, "Could not update product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": updated,
	})
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, h.log, "Could not delete product", err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
		"id":      id,
	})
}
