package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inventory/internal/handlers"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"
)

// setupApp builds a Fiber app against a fresh in-memory SQLite database,
// wired the same way main.NewApp does it.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))

	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	productService := services.NewProductService(productRepo, nil)
	authService := services.NewAuthService(userRepo, "test_jwt_secret")

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewProductHandler(productService).RegisterRoutes(api)
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	return app
}

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeProduct(t *testing.T, resp *http.Response) models.Product {
	t.Helper()
	defer resp.Body.Close()
	var product models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestProductCRUDRoundTrip(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":  "Widget",
		"stock": 10,
		"price": 2.5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeProduct(t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Widget", created.Name)
	assert.Equal(t, models.DefaultCategory, created.Category)
	assert.Equal(t, 10, created.Stock)
	assert.Equal(t, 2.5, created.Price)
	assert.False(t, created.CreatedAt.IsZero())

	// Round trip: GET by id returns the same record.
	resp = doJSON(t, app, http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeProduct(t, resp)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Stock, fetched.Stock)
	assert.Equal(t, created.Price, fetched.Price)

	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeMap(t, resp)["ok"])

	resp = doJSON(t, app, http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", decodeMap(t, resp)["error"])

	// Deleting a nonexistent id is a 404, not ok:false.
	resp = doJSON(t, app, http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductCreateValidation(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{"price": 5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Name is required", decodeMap(t, resp)["error"])

	resp = doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Name is required", decodeMap(t, resp)["error"])

	// Negative stock is clamped to zero, never rejected.
	resp = doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name":  "Widget",
		"stock": -7,
		"price": -1.5,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeProduct(t, resp)
	assert.Equal(t, 0, created.Stock)
	assert.Equal(t, 0.0, created.Price)
}

func TestProductReplace(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Widget", "category": "Tools", "stock": 10, "price": 2.5,
	})
	created := decodeProduct(t, resp)

	payload := map[string]interface{}{"name": "Widget v2", "stock": 4}

	resp = doJSON(t, app, http.MethodPut, "/api/products/"+created.ID, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	replaced := decodeProduct(t, resp)
	assert.Equal(t, created.ID, replaced.ID)
	assert.Equal(t, "Widget v2", replaced.Name)
	// Absent fields are reset to defaults: a true overwrite, not a merge.
	assert.Equal(t, models.DefaultCategory, replaced.Category)
	assert.Equal(t, 4, replaced.Stock)
	assert.Equal(t, 0.0, replaced.Price)

	// Repeating the same PUT yields the same record, modulo updatedAt.
	resp = doJSON(t, app, http.MethodPut, "/api/products/"+created.ID, payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeProduct(t, resp)
	assert.Equal(t, replaced.ID, again.ID)
	assert.Equal(t, replaced.Name, again.Name)
	assert.Equal(t, replaced.Category, again.Category)
	assert.Equal(t, replaced.Stock, again.Stock)
	assert.Equal(t, replaced.Price, again.Price)
	assert.Equal(t, replaced.CreatedAt.Unix(), again.CreatedAt.Unix())

	resp = doJSON(t, app, http.MethodPut, "/api/products/"+created.ID, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/products/does-not-exist", payload)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductPatch(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Widget", "category": "Gadgets", "stock": 10, "price": 2.5,
	})
	created := decodeProduct(t, resp)

	// Patching only the category leaves everything else untouched.
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID, map[string]interface{}{
		"category": "Tools",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decodeProduct(t, resp)
	assert.Equal(t, "Tools", patched.Category)
	assert.Equal(t, "Widget", patched.Name)
	assert.Equal(t, 10, patched.Stock)
	assert.Equal(t, 2.5, patched.Price)

	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID, map[string]interface{}{
		"stock": -3,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid stock", decodeMap(t, resp)["error"])

	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID, map[string]interface{}{
		"price": -0.5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid price", decodeMap(t, resp)["error"])

	// Unlike create and replace, patch allows an empty name.
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID, map[string]interface{}{
		"name": "",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", decodeProduct(t, resp).Name)

	resp = doJSON(t, app, http.MethodPatch, "/api/products/does-not-exist", map[string]interface{}{
		"category": "Tools",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStockDelta(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/products", map[string]interface{}{
		"name": "Widget", "stock": 3,
	})
	created := decodeProduct(t, resp)

	// +5 then -100 from 3 clamps at zero instead of going negative.
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": 5})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 8, decodeProduct(t, resp).Stock)

	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": -100})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decodeProduct(t, resp).Stock)

	// +5 then -2 from 3 converges to 6.
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": -2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, decodeProduct(t, resp).Stock)

	// The fractional part of a delta is truncated toward zero.
	resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", map[string]interface{}{"delta": -2.7})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, decodeProduct(t, resp).Stock)

	for _, body := range []map[string]interface{}{
		{},
		{"delta": "abc"},
	} {
		resp = doJSON(t, app, http.MethodPatch, "/api/products/"+created.ID+"/stock", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "delta must be a number", decodeMap(t, resp)["error"])
	}

	resp = doJSON(t, app, http.MethodPatch, "/api/products/does-not-exist/stock", map[string]interface{}{"delta": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductListFiltering(t *testing.T) {
	app := setupApp(t)

	for _, p := range []map[string]interface{}{
		{"name": "Hammer", "category": "Tools", "stock": 3},
		{"name": "Screwdriver", "category": "Tools", "stock": 7},
		{"name": "Widget", "category": "Gadgets", "stock": 10},
		{"name": "Gizmo", "category": "Gadgets", "stock": 15},
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/products", p)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	list := func(query string) []models.Product {
		resp := doJSON(t, app, http.MethodGet, "/api/products"+query, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()
		var products []models.Product
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
		return products
	}

	inRange := list("?minStock=5&maxStock=10")
	require.Len(t, inRange, 2)
	for _, p := range inRange {
		assert.GreaterOrEqual(t, p.Stock, 5)
		assert.LessOrEqual(t, p.Stock, 10)
	}

	// An unparsable bound is silently ignored, not rejected.
	assert.Len(t, list("?minStock=abc"), 4)
	assert.Len(t, list("?minStock=abc&maxStock=7"), 2)

	byText := list("?q=widg")
	require.Len(t, byText, 1)
	assert.Equal(t, "Widget", byText[0].Name)

	assert.Len(t, list("?category=Tools"), 2)
	assert.Empty(t, list("?q=xyzzy"))
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeMap(t, resp)
	assert.Equal(t, "testuser", registered["username"])
	assert.Empty(t, registered["Password"]) // hash must never be returned

	// Duplicate registration conflicts.
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := decodeMap(t, resp)["token"].(string)
	require.NotEmpty(t, token)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "testuser",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meResp.StatusCode)
	assert.Equal(t, "testuser", decodeMap(t, meResp)["username"])

	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
