package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/delivro/rateshop/internal/server"
	"github.com/delivro/rateshop/internal/storage/memory"
	"github.com/delivro/rateshop/pkg/carrier"
	"github.com/delivro/rateshop/pkg/rating"
)

func newTestServer(t *testing.T, seed bool) (*server.Server, *carrier.Registry) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	registry := carrier.NewRegistry(memory.New(), logger)
	if seed {
		require.NoError(t, registry.EnsureDefaults(context.Background()))
	}

	cfg := rating.DefaultConfig()
	cfg.Now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	engine := rating.New(cfg)

	return server.New(server.Config{Port: 8080}, registry, engine, logger), registry
}

func doJSON(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_ListCarriers(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodGet, "/api/carriers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var carriers []carrier.Carrier
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&carriers))
	require.Len(t, carriers, 2)
	assert.Equal(t, "DPD", carriers[0].Name)
	assert.Equal(t, "Post", carriers[1].Name)
}

func TestServer_ListCarriers_EmptyIsArray(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := doJSON(t, srv, http.MethodGet, "/api/carriers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestServer_CreateCarrier(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPost, "/api/carriers", `{"name":"Aramex","price":800}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool              `json:"success"`
		Carriers []carrier.Carrier `json:"carriers"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Carriers, 3, "mutations answer with the refreshed list")
	assert.Equal(t, "Aramex", resp.Carriers[0].Name)
}

func TestServer_CreateCarrier_Duplicate(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPost, "/api/carriers", `{"name":"DPD","price":500}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "A carrier with this name already exists", resp.Error)
}

func TestServer_CreateCarrier_Invalid(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"price":800}`},
		{"zero price", `{"name":"Aramex","price":0}`},
		{"negative price", `{"name":"Aramex","price":-100}`},
		{"not json", `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/carriers", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestServer_UpdateCarrier(t *testing.T) {
	srv, registry := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/carriers/DPD", `{"price":1500}`)
	require.Equal(t, http.StatusOK, rec.Code)

	carriers, err := registry.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1500), carriers[0].PricePerParcel)
}

func TestServer_UpdateCarrier_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/carriers/missing", `{"price":1500}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Carrier not found", resp.Error)
}

func TestServer_UpdateCarrier_InvalidPrice(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPut, "/api/carriers/DPD", `{"price":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DeleteCarrier(t *testing.T) {
	srv, registry := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodDelete, "/api/carriers/DPD", "")
	require.Equal(t, http.StatusOK, rec.Code)

	carriers, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, carriers, 1)
	assert.Equal(t, "Post", carriers[0].Name)
}

func TestServer_DeleteCarrier_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodDelete, "/api/carriers/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_CarrierService_CheapestRate(t *testing.T) {
	srv, _ := newTestServer(t, true)

	body := `{"rate":{"items":[{"grams":1000,"quantity":5}],"currency":"EUR"}}`
	rec := doJSON(t, srv, http.MethodPost, "/carrier-service", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result rating.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Success)
	require.Len(t, result.Rates, 1)

	quote := result.Rates[0]
	assert.Equal(t, "DPD (1 parcel)", quote.ServiceName)
	assert.Equal(t, "dpd", quote.ServiceCode)
	assert.Equal(t, int64(1000), quote.TotalPrice)
	assert.Equal(t, "EUR", quote.Currency)
}

func TestServer_CarrierService_MultiParcel(t *testing.T) {
	srv, registry := newTestServer(t, false)
	ctx := context.Background()

	_, err := registry.Create(ctx, "DPD", 1000)
	require.NoError(t, err)
	_, err = registry.Create(ctx, "Post", 900)
	require.NoError(t, err)

	body := `{"rate":{"items":[{"grams":70000,"quantity":1}]}}`
	rec := doJSON(t, srv, http.MethodPost, "/carrier-service", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result rating.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Success)
	require.Len(t, result.Rates, 1)
	assert.Equal(t, "Post (3 parcels)", result.Rates[0].ServiceName)
	assert.Equal(t, int64(2700), result.Rates[0].TotalPrice)
}

func TestServer_CarrierService_EmptyRegistry(t *testing.T) {
	srv, _ := newTestServer(t, false)

	body := `{"rate":{"items":[{"grams":1000,"quantity":1}]}}`
	rec := doJSON(t, srv, http.MethodPost, "/carrier-service", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result rating.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Empty(t, result.Rates)
}

func TestServer_CarrierService_MissingItems(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPost, "/carrier-service", `{"rate":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result rating.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestServer_CarrierService_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, true)

	rec := doJSON(t, srv, http.MethodPost, "/carrier-service", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
