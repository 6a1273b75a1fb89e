package main

import (
	"context"
	"testing"

	"tokocommerce/internal/auth"
	"tokocommerce/internal/config"
	"tokocommerce/internal/database"
	"tokocommerce/internal/models"
	"tokocommerce/internal/repositories"
	"tokocommerce/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedProducts(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	admin := &models.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, store.Users().Create(ctx, admin))

	svc := services.NewProductService(store.Products(), store.Categories())
	seller := auth.Identity{UserID: admin.ID, Role: admin.Role}

	require.NoError(t, seedProducts(ctx, svc, seller, zap.NewNop()))
	products, err := svc.GetAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		assert.Equal(t, admin.ID, p.SellerID)
		assert.Positive(t, p.StockQuantity)
	}

	// a second run leaves the catalog alone
	require.NoError(t, seedProducts(ctx, svc, seller, zap.NewNop()))
	products, err = svc.GetAllProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestOpenStore(t *testing.T) {
	checks := map[string]func() error{}
	store, closeStore, err := openStore(&config.Config{DBDriver: database.DriverMemory}, zap.NewNop(), checks)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &repositories.MemoryStore{}, store)
	assert.Empty(t, checks)

	cfg := &config.Config{DBDriver: database.DriverSQLite, DatabaseDSN: "file:main_test?mode=memory&cache=shared"}
	store, closeStore, err = openStore(cfg, zap.NewNop(), checks)
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &repositories.GORMStore{}, store)
	require.Contains(t, checks, "database")
	assert.NoError(t, checks["database"]())
}
