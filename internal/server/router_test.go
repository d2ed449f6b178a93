package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mcengine-currency-go/internal/api"
	"mcengine-currency-go/internal/database"
	"mcengine-currency-go/internal/ledger"
	"mcengine-currency-go/internal/metrics"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/token"
)

func newTestRouter(t *testing.T) (*api.LedgerService, http.Handler) {
	t.Helper()
	db, err := database.NewService(context.Background(), database.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	reg := prometheus.NewRegistry()
	denoms := models.NewDenominationSet(models.DefaultDenominations())
	engine, err := ledger.New(db, token.NewCodec(denoms, ""), ledger.Config{
		Denominations: denoms,
		LockTimeout:   time.Second,
	}, metrics.NewLedgerMetrics(reg))
	require.NoError(t, err)

	svc := api.NewLedgerService(db, engine)
	return svc, NewRouter(svc, reg)
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestHealthz(t *testing.T) {
	_, h := newTestRouter(t)
	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestBalancesEndpoint(t *testing.T) {
	svc, h := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.Credit(ctx, "alice", "gold", "12.5")
	require.NoError(t, err)

	code, body := get(t, h, "/accounts/alice/balances")
	require.Equal(t, http.StatusOK, code)
	balances := body["balances"].([]any)
	require.Len(t, balances, 4)
	gold := balances[3].(map[string]any)
	assert.Equal(t, "gold", gold["denomination"])
	assert.Equal(t, "12.5", gold["balance"])

	code, body = get(t, h, "/accounts/alice/balances/GOLD")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "gold", body["balance"].(map[string]any)["denomination"])

	code, body = get(t, h, "/accounts/alice/balances/platinum")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown_denomination", body["kind"])
}

func TestTransactionsEndpoint(t *testing.T) {
	svc, h := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.Credit(ctx, "alice", "coin", "10")
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, "alice", "bob", "coin", "4", "lunch")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, "alice", "silver", "1")
	require.NoError(t, err)

	code, body := get(t, h, "/accounts/alice/transactions")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["transactions"], 3)

	code, body = get(t, h, "/accounts/alice/transactions?denomination=coin&limit=1")
	require.Equal(t, http.StatusOK, code)
	records := body["transactions"].([]any)
	require.Len(t, records, 1)
	assert.Equal(t, "pay", records[0].(map[string]any)["kind"])

	code, _ = get(t, h, "/accounts/alice/transactions?limit=abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestReconcileEndpoint(t *testing.T) {
	svc, h := newTestRouter(t)
	_, err := svc.Credit(context.Background(), "alice", "copper", "3")
	require.NoError(t, err)

	code, body := get(t, h, "/accounts/alice/reconcile")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["reconciled"])
}

func TestAccountsAndDenominations(t *testing.T) {
	svc, h := newTestRouter(t)
	require.NoError(t, svc.EnsureAccount(context.Background(), "carol"))

	code, body := get(t, h, "/accounts")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"carol"}, body["accounts"])

	code, body = get(t, h, "/denominations")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"coin", "copper", "silver", "gold"}, body["denominations"])
}

func TestMetricsEndpoint(t *testing.T) {
	svc, h := newTestRouter(t)
	_, err := svc.Credit(context.Background(), "alice", "coin", "1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ledger_operations_total")
}

func TestNewServerWrapsHandler(t *testing.T) {
	_, h := newTestRouter(t)
	srv := NewServer(models.ServerConfig{Addr: ":0", ReadHeaderTimeout: time.Second}, h)
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadHeaderTimeout)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
