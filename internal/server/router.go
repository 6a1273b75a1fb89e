// Package server assembles the Fiber application.
package server

import (
	"errors"
	"time"

	"tokocommerce/internal/handlers"
	"tokocommerce/internal/metrics"
	"tokocommerce/internal/middleware"
	"tokocommerce/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth       *services.AuthService
	Products   *services.ProductService
	Categories *services.CategoryService
	Orders     *services.OrderService
	Payments   *services.PaymentService
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	// Checks run on GET /health; a failing check turns the response into 503.
	Checks map[string]func() error
}

// New builds the application with every route mounted.
func New(deps Deps) *fiber.App {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "toko-commerce",
		ErrorHandler: errorHandler(log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(middleware.RequestLogger(log, deps.Metrics))
	app.Use(recover.New())

	app.Get("/health", healthHandler(deps.Checks))
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	api := app.Group("/api")
	authRequired := middleware.AuthRequired(deps.Auth, log)

	handlers.NewAuthHandler(deps.Auth, log).RegisterRoutes(api)
	handlers.NewUserHandler(deps.Auth, log).RegisterRoutes(api, authRequired)
	handlers.NewCategoryHandler(deps.Categories, log).RegisterRoutes(api, authRequired)
	handlers.NewProductHandler(deps.Products, log).RegisterRoutes(api, authRequired)
	handlers.NewOrderHandler(deps.Orders, log).RegisterRoutes(api, authRequired)
	handlers.NewPaymentHandler(deps.Payments, log).RegisterRoutes(api, authRequired)

	return app
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(fiber.Map{"message": "Internal Server Error"})
		}
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}
}

func healthHandler(checks map[string]func() error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		results := fiber.Map{}
		for name, check := range checks {
			if err := check(); err != nil {
				status = fiber.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "healthy"
		if status != fiber.StatusOK {
			state = "unhealthy"
		}
		return c.Status(status).JSON(fiber.Map{
			"status": state,
			"time":   time.Now().Format(time.RFC3339),
			"checks": results,
		})
	}
}
