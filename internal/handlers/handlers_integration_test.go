package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokocommerce/internal/database"
	"tokocommerce/internal/idempotency"
	"tokocommerce/internal/metrics"
	"tokocommerce/internal/repositories"
	"tokocommerce/internal/server"
	"tokocommerce/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass"
)

type testEnv struct {
	app   *fiber.App
	store repositories.Store
}

// setupApp builds the full application on an in-memory SQLite database with
// a seeded admin account.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repositories.NewGORMStore(db)
	log := zap.NewNop()
	m := metrics.New()
	authService := services.NewAuthService(store.Users(), "test_jwt_secret", time.Hour, log)
	_, _, err = authService.EnsureAdmin(context.Background(), "Admin", adminEmail, adminPassword)
	require.NoError(t, err)

	app := server.New(server.Deps{
		Auth:       authService,
		Products:   services.NewProductService(store.Products(), store.Categories()),
		Categories: services.NewCategoryService(store.Categories()),
		Orders: services.NewOrderService(store, nil, log, m, services.OrderOptions{
			Idempotency: idempotency.NewMemoryStore(),
		}),
		Payments: services.NewPaymentService(store, nil, log, m),
		Metrics:  m,
		Log:      log,
		Checks:   map[string]func() error{"database": func() error { return nil }},
	})
	return &testEnv{app: app, store: store}
}

type response struct {
	status int
	body   map[string]any
	list   []map[string]any
	header http.Header
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, header: resp.Header}
	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(trimmed, "["):
		require.NoError(t, json.Unmarshal(raw, &out.list))
	case strings.HasPrefix(trimmed, "{"):
		require.NoError(t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	token, _ := resp.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) registerUser(t *testing.T, name, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	return e.login(t, email, "password123")
}

func (e *testEnv) createProduct(t *testing.T, adminToken, name string, price any, stock int) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/products", adminToken, map[string]any{
		"name": name, "price": price, "stock_quantity": stock,
	})
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	product := resp.body["product"].(map[string]any)
	return product["id"].(string)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)

	body := map[string]string{"name": "Test User", "email": "test@example.com", "password": "password123"}
	resp := env.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, "User registered successfully", resp.body["message"])
	user := resp.body["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")

	resp = env.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Sneaky", "email": "sneaky@example.com", "password": "password123", "role": "admin",
	})
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": "x", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Validation failed", resp.body["message"])

	token := env.login(t, "test@example.com", "password123")

	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "test@example.com", "password": "wrong!"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	resp = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = env.do(t, http.MethodGet, "/api/users/my-info", token, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "test@example.com", resp.body["email"])
}

func TestProtectedRoutes(t *testing.T) {
	env := setupApp(t)
	userToken := env.registerUser(t, "Plain User", "user@example.com")
	adminToken := env.login(t, adminEmail, adminPassword)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/protected/user", "", nil).status)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/protected/user", "garbage", nil).status)

	resp := env.do(t, http.MethodGet, "/api/protected/user", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "welcome user", resp.body["message"])

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/protected/admin", userToken, nil).status)
	resp = env.do(t, http.MethodGet, "/api/protected/admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "welcome admin", resp.body["message"])
}

func TestProductAndCategoryEndpoints(t *testing.T) {
	env := setupApp(t)
	adminToken := env.login(t, adminEmail, adminPassword)
	userToken := env.registerUser(t, "Buyer One", "buyer@example.com")

	resp := env.do(t, http.MethodPost, "/api/categories", userToken, map[string]string{"name": "Gadgets"})
	assert.Equal(t, http.StatusForbidden, resp.status)
	resp = env.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{"name": "Gadgets"})
	require.Equal(t, http.StatusCreated, resp.status)
	categoryID := resp.body["category"].(map[string]any)["id"].(string)
	resp = env.do(t, http.MethodPost, "/api/categories", adminToken, map[string]string{"name": "Gadgets"})
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = env.do(t, http.MethodGet, "/api/categories", userToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.list, 1)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/categories", "", nil).status)

	newProduct := map[string]any{"name": "Smartphone", "price": 799.99, "stock_quantity": 50, "category_id": categoryID}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/products", "", newProduct).status)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/products", userToken, newProduct).status)

	resp = env.do(t, http.MethodPost, "/api/products", adminToken, newProduct)
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	productID := resp.body["product"].(map[string]any)["id"].(string)

	resp = env.do(t, http.MethodPost, "/api/products", adminToken, map[string]any{"name": "Bad", "price": -1, "stock_quantity": -5})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = env.do(t, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	require.Len(t, resp.list, 1)
	assert.Equal(t, "Smartphone", resp.list[0]["name"])
	assert.NotNil(t, resp.list[0]["seller"])

	resp = env.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Gadgets", resp.body["category"].(map[string]any)["name"])

	resp = env.do(t, http.MethodPut, "/api/products/"+productID, adminToken, map[string]any{"name": "Smartphone Pro", "price": "899.99", "stock_quantity": 45})
	require.Equal(t, http.StatusOK, resp.status, resp.body)
	updated := resp.body["product"].(map[string]any)
	assert.Equal(t, "Smartphone Pro", updated["name"])
	assert.Equal(t, "899.99", updated["price"])

	resp = env.do(t, http.MethodDelete, "/api/products/"+productID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.body["message"], "deleted successfully")
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/products/"+productID, "", nil).status)
}

func TestOrderWorkflowEndpoints(t *testing.T) {
	env := setupApp(t)
	adminToken := env.login(t, adminEmail, adminPassword)
	aliceToken := env.registerUser(t, "Alice", "alice@example.com")
	bobToken := env.registerUser(t, "Bobby", "bob@example.com")
	p1 := env.createProduct(t, adminToken, "Keyboard", 500, 10)

	order := map[string]any{"items": []map[string]any{{"product_id": p1, "quantity": 3}}}
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/orders", adminToken, order).status, "only the user role places orders")

	resp := env.do(t, http.MethodPost, "/api/orders", aliceToken, order)
	require.Equal(t, http.StatusCreated, resp.status, resp.body)
	assert.Equal(t, "Order created successfully", resp.body["message"])
	created := resp.body["order"].(map[string]any)
	orderID := created["id"].(string)
	assert.Equal(t, "1500", created["total_amount"])
	assert.Equal(t, "pending", created["status"])

	product := env.do(t, http.MethodGet, "/api/products/"+p1, "", nil)
	assert.EqualValues(t, 7, product.body["stock_quantity"])

	resp = env.do(t, http.MethodPost, "/api/orders", aliceToken, map[string]any{"items": []map[string]any{{"product_id": p1, "quantity": 8}}})
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "insufficient_stock", resp.body["kind"])

	resp = env.do(t, http.MethodPost, "/api/orders", aliceToken, map[string]any{"items": []map[string]any{{"product_id": "nope", "quantity": 1}}})
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = env.do(t, http.MethodPost, "/api/orders", aliceToken, map[string]any{"items": []map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	resp = env.do(t, http.MethodPost, "/api/orders", aliceToken, map[string]any{"items": []map[string]any{{"product_id": p1, "quantity": 0}}})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = env.do(t, http.MethodGet, "/api/orders/my-orders", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.list, 1)
	resp = env.do(t, http.MethodGet, "/api/orders/my-orders", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.list, 0)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/orders", aliceToken, nil).status)
	resp = env.do(t, http.MethodGet, "/api/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Len(t, resp.list, 1)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/orders/"+orderID, aliceToken, nil).status)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/orders/"+orderID, bobToken, nil).status)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPut, "/api/orders/update/"+orderID, aliceToken, map[string]string{"status": "shipped"}).status)
	resp = env.do(t, http.MethodPut, "/api/orders/update/"+orderID, adminToken, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "shipped", resp.body["order"].(map[string]any)["status"])
	resp = env.do(t, http.MethodPut, "/api/orders/update/"+orderID, adminToken, map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/orders/cancel/"+orderID, bobToken, nil).status)
	resp = env.do(t, http.MethodDelete, "/api/orders/cancel/"+orderID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "canceled", resp.body["order"].(map[string]any)["status"])
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodDelete, "/api/orders/cancel/"+orderID, aliceToken, nil).status)
	resp = env.do(t, http.MethodPut, "/api/orders/update/"+orderID, adminToken, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, resp.status, "canceled orders stay canceled")
}

func TestOrderIdempotencyKey(t *testing.T) {
	env := setupApp(t)
	adminToken := env.login(t, adminEmail, adminPassword)
	userToken := env.registerUser(t, "Carol", "carol@example.com")
	p := env.createProduct(t, adminToken, "Notebook", "3.25", 10)
	order := map[string]any{"items": []map[string]any{{"product_id": p, "quantity": 2}}}

	first := env.do(t, http.MethodPost, "/api/orders", userToken, order, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.status)
	second := env.do(t, http.MethodPost, "/api/orders", userToken, order, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusOK, second.status)
	assert.Equal(t, "true", second.header.Get("Idempotent-Replayed"))
	assert.Equal(t, first.body["order"].(map[string]any)["id"], second.body["order"].(map[string]any)["id"])

	product := env.do(t, http.MethodGet, "/api/products/"+p, "", nil)
	assert.EqualValues(t, 8, product.body["stock_quantity"])
}

func TestPaymentEndpoints(t *testing.T) {
	env := setupApp(t)
	adminToken := env.login(t, adminEmail, adminPassword)
	userToken := env.registerUser(t, "Dave", "dave@example.com")
	p := env.createProduct(t, adminToken, "Speaker", 120, 2)

	resp := env.do(t, http.MethodPost, "/api/orders", userToken, map[string]any{"items": []map[string]any{{"product_id": p, "quantity": 1}}})
	require.Equal(t, http.StatusCreated, resp.status)
	orderID := resp.body["order"].(map[string]any)["id"].(string)

	resp = env.do(t, http.MethodPost, "/api/payments", userToken, map[string]string{"order_id": orderID})
	assert.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, "paid", resp.body["payment"].(map[string]any)["status"])

	resp = env.do(t, http.MethodPost, "/api/payments", userToken, map[string]string{"order_id": orderID})
	assert.Equal(t, http.StatusConflict, resp.status)
	resp = env.do(t, http.MethodPost, "/api/payments", userToken, map[string]string{"order_id": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.status)
	resp = env.do(t, http.MethodPost, "/api/payments", userToken, map[string]string{"order_id": orderID, "status": "refunded"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/payments", adminToken, map[string]string{"order_id": orderID}).status)

	resp = env.do(t, http.MethodGet, "/api/orders/"+orderID, userToken, nil)
	assert.NotNil(t, resp.body["payment"])
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "healthy", resp.body["status"])

	env.do(t, http.MethodGet, "/api/products", "", nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	raw, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	text, _ := io.ReadAll(raw.Body)
	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Contains(t, string(text), "toko_http_requests_total")
	assert.Contains(t, string(text), `route="/api/products`)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nowhere", "", nil).status)
}
