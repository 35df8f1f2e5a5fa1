//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests using real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   1. Full sale cycle (login → create product → sale → list)
//   2. Low-stock alert surfaces in the response and the low-stock report
//   3. Insufficient stock is rejected with 409 and no mutation
//   4. Deleting a sale does not restock the lot
//   5. Batch order reports per-item outcomes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharmapos/internal/config"
	"pharmapos/internal/infra"
	"pharmapos/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("pharmapos_test"),
		tcPostgres.WithUsername("pharmapos"),
		tcPostgres.WithPassword("pharmapos"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		LowStockThreshold:  1,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("e2e-password"), 12)
	require.NoError(t, err)
	seed := db.Exec(`INSERT INTO users (id, username, full_name, password_hash, role, active, created_at, updated_at)
		VALUES (gen_random_uuid(), 'admin@e2e.test', 'Admin E2E', ?, 'admin', true, NOW(), NOW())
		ON CONFLICT DO NOTHING`, string(hash))
	require.NoError(t, seed.Error)

	r := router.New(cfg, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin@e2e.test", "password": "e2e-password"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

func createProduct(t *testing.T, env *testEnv, name, sku string, price float64, qty int) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/products",
		jsonBody(t, map[string]any{
			"sku":              sku,
			"name":             name,
			"unit_price":       price,
			"initial_quantity": qty,
		}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var prod struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &prod)
	return prod.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	prodID := createProduct(t, env, "Paracetamol 500mg", "PARA-500", 10.0, 20)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{"product_id": prodID, "quantity": 3}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID           string `json:"id"`
		TotalPrice   string `json:"total_price"`
		Remaining    int    `json:"remaining"`
		Notification struct {
			Message  string `json:"message"`
			Severity string `json:"severity"`
		} `json:"notification"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "30", sale.TotalPrice)
	assert.Equal(t, 17, sale.Remaining)
	assert.Equal(t, "Product has been sold", sale.Notification.Message)
	assert.Equal(t, "success", sale.Notification.Severity)

	listResp := do(t, env.server, "GET",
		fmt.Sprintf("/v1/sales?date=%s", time.Now().Format("2006-01-02")), nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Total int `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, 1, list.Total)
}

func TestE2E_LowStockAlert(t *testing.T) {
	env := setupTestEnv(t)
	prodID := createProduct(t, env, "Insulin pen", "INS-PEN", 120.0, 2)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{"product_id": prodID, "quantity": 1}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		Remaining    int `json:"remaining"`
		Notification struct {
			Message  string `json:"message"`
			Severity string `json:"severity"`
		} `json:"notification"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, 1, sale.Remaining)
	assert.Equal(t, "Product is running out of stock", sale.Notification.Message)
	assert.Equal(t, "danger", sale.Notification.Severity)

	// The lot shows up in the low-stock report
	lowResp := do(t, env.server, "GET", "/v1/inventory/low-stock", nil, env.token)
	require.Equal(t, http.StatusOK, lowResp.StatusCode)
	var low struct {
		Threshold int `json:"threshold"`
		Lots      []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"lots"`
	}
	decodeJSON(t, lowResp, &low)
	require.Len(t, low.Lots, 1)
	assert.Equal(t, prodID, low.Lots[0].ProductID)
	assert.Equal(t, 1, low.Lots[0].Quantity)
}

func TestE2E_InsufficientStockRejected(t *testing.T) {
	env := setupTestEnv(t)
	prodID := createProduct(t, env, "Cough syrup", "CGH-SYR", 7.5, 1)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{"product_id": prodID, "quantity": 3}), env.token)
	assert.Equal(t, http.StatusConflict, saleResp.StatusCode)
	saleResp.Body.Close()

	// Stock untouched
	prodResp := do(t, env.server, "GET", "/v1/products/"+prodID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Quantity int `json:"quantity"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 1, prod.Quantity)
}

func TestE2E_DeleteSaleKeepsStock(t *testing.T) {
	env := setupTestEnv(t)
	prodID := createProduct(t, env, "Gauze rolls", "GAUZE-01", 3.0, 10)

	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{"product_id": prodID, "quantity": 4}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID string `json:"id"`
	}
	decodeJSON(t, saleResp, &sale)

	delResp := do(t, env.server, "DELETE", "/v1/sales/"+sale.ID, nil, env.token)
	require.Equal(t, http.StatusOK, delResp.StatusCode)
	var note struct {
		Message string `json:"message"`
	}
	decodeJSON(t, delResp, &note)
	assert.Equal(t, "Sale has been deleted", note.Message)

	// Deleting a sale is bookkeeping, not a return: stock stays at 6
	prodResp := do(t, env.server, "GET", "/v1/products/"+prodID, nil, env.token)
	require.Equal(t, http.StatusOK, prodResp.StatusCode)
	var prod struct {
		Quantity int `json:"quantity"`
	}
	decodeJSON(t, prodResp, &prod)
	assert.Equal(t, 6, prod.Quantity)
}

func TestE2E_BatchOrderPerItemResults(t *testing.T) {
	env := setupTestEnv(t)
	okID := createProduct(t, env, "Thermometer", "THERM-01", 15.0, 10)
	shortID := createProduct(t, env, "Face masks", "MASK-50", 1.0, 2)

	batchResp := do(t, env.server, "POST", "/v1/sales/batch",
		jsonBody(t, map[string]any{
			"items": []map[string]any{
				{"product_id": okID, "quantity": 2, "total_price": 30.0},
				{"product_id": shortID, "quantity": 5, "total_price": 5.0},
			},
		}), env.token)
	require.Equal(t, http.StatusOK, batchResp.StatusCode)
	var batch struct {
		Message string `json:"message"`
		Results []struct {
			ProductID string `json:"product_id"`
			Status    string `json:"status"`
		} `json:"results"`
	}
	decodeJSON(t, batchResp, &batch)
	assert.Equal(t, "Order stored successfully", batch.Message)
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "sold", batch.Results[0].Status)
	assert.Equal(t, "insufficient_stock", batch.Results[1].Status)
}
