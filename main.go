package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokocommerce/internal/auth"
	"tokocommerce/internal/config"
	"tokocommerce/internal/database"
	"tokocommerce/internal/idempotency"
	"tokocommerce/internal/metrics"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"
	"tokocommerce/internal/server"
	"tokocommerce/internal/services"
	"tokocommerce/pkg/logger"
	"tokocommerce/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("application stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checks := map[string]func() error{}

	// --- Storage ---
	store, closeStore, err := openStore(cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- RabbitMQ (optional) ---
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		events = mqClient

		go func() {
			log.Info("starting audit consumer", zap.String("queue", rabbitmq.DefaultAuditQueue))
			if err := mqClient.Consume(ctx, rabbitmq.DefaultAuditQueue, "#", rabbitmq.AuditHandler(log)); err != nil {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("RABBITMQ_URL not set, domain events are disabled")
	}

	// --- Idempotency keys ---
	var keys idempotency.Store = idempotency.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := idempotency.NewRedisClient(cfg.RedisAddr)
		defer rdb.Close()
		checks["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(pingCtx).Err()
		}
		keys = idempotency.NewRedisStore(rdb)
	}

	// --- Services ---
	m := metrics.New()
	authService := services.NewAuthService(store.Users(), cfg.JWTSecret, cfg.TokenTTL, log)
	productService := services.NewProductService(store.Products(), store.Categories())
	categoryService := services.NewCategoryService(store.Categories())
	orderService := services.NewOrderService(store, events, log, m, services.OrderOptions{
		RestockOnCancel: cfg.RestockOnCancel,
		Idempotency:     keys,
		IdempotencyTTL:  cfg.IdempotencyTTL,
	})
	paymentService := services.NewPaymentService(store, events, log, m)

	if cfg.AdminEmail != "" {
		admin, created, err := authService.EnsureAdmin(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to ensure admin account: %w", err)
		}
		log.Info("admin account ready", zap.String("email", admin.Email), zap.Bool("created", created))

		if cfg.SeedProducts {
			seller := auth.Identity{UserID: admin.ID, Role: admin.Role}
			if err := seedProducts(ctx, productService, seller, log); err != nil {
				return err
			}
		}
	} else if cfg.SeedProducts {
		log.Warn("SEED_PRODUCTS needs ADMIN_EMAIL as the seller, skipping seed")
	}

	// --- HTTP server ---
	app := server.New(server.Deps{
		Auth:       authService,
		Products:   productService,
		Categories: categoryService,
		Orders:     orderService,
		Payments:   paymentService,
		Metrics:    m,
		Log:        log,
		Checks:     checks,
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
		serveErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
	return nil
}

// openStore builds the configured store and registers its health check.
func openStore(cfg *config.Config, log *zap.Logger, checks map[string]func() error) (repositories.Store, func(), error) {
	if cfg.DBDriver == database.DriverMemory {
		log.Warn("using the in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(), func() {}, nil
	}

	level := gormlogger.Warn
	if cfg.AppEnv == "development" && cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	db, err := database.Open(database.Config{Driver: cfg.DBDriver, DSN: cfg.DatabaseDSN, LogLevel: level})
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	checks["database"] = sqlDB.Ping
	return repositories.NewGORMStore(db), func() { sqlDB.Close() }, nil
}

// seedProducts adds a small catalog when the store has no products yet.
func seedProducts(ctx context.Context, svc *services.ProductService, seller auth.Identity, log *zap.Logger) error {
	existing, err := svc.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		log.Info("catalog already seeded", zap.Int("products", len(existing)))
		return nil
	}

	products := []models.Product{
		{Name: "Laptop", Price: decimal.RequireFromString("1200.00"), StockQuantity: 10},
		{Name: "Keyboard", Price: decimal.RequireFromString("75.00"), StockQuantity: 25},
		{Name: "Mouse", Price: decimal.RequireFromString("25.50"), StockQuantity: 50},
	}
	var errs []error
	for i := range products {
		if err := svc.CreateProduct(ctx, seller, &products[i]); err != nil {
			log.Error("error seeding product", zap.String("name", products[i].Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		log.Info("seeded product", zap.String("name", products[i].Name), zap.String("id", products[i].ID))
	}
	return errors.Join(errs...)
}
