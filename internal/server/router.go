// Package server exposes a read-only admin HTTP surface over the ledger.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mcengine-currency-go/internal/api"
	"mcengine-currency-go/internal/models"
	"mcengine-currency-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type handler struct {
	ledger *api.LedgerService
}

// NewRouter registers every admin endpoint. gatherer may be nil, in which
// case /metrics is not served.
func NewRouter(ledger *api.LedgerService, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{ledger: ledger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", h.health)
	r.Get("/denominations", h.denominations)
	r.Get("/accounts", h.accounts)
	r.Route("/accounts/{accountId}", func(r chi.Router) {
		r.Get("/balances", h.balances)
		r.Get("/balances/{denomination}", h.balance)
		r.Get("/transactions", h.transactions)
		r.Get("/reconcile", h.reconcile)
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) denominations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"denominations": h.ledger.Denominations()})
}

func (h *handler) accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.Accounts(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"accounts": accounts})
}

func (h *handler) balances(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "accountId")
	balances, err := h.ledger.GetBalances(r.Context(), accountId)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": accountId, "balances": balances})
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "accountId")
	balance, err := h.ledger.GetBalance(r.Context(), accountId, chi.URLParam(r, "denomination"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": accountId,
		"balance":    models.DenominationBalance{Denomination: models.NormalizeDenomination(chi.URLParam(r, "denomination")), Balance: balance},
	})
}

func (h *handler) transactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	offset, err := intParam(q.Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	accountId := chi.URLParam(r, "accountId")
	records, err := h.ledger.History(r.Context(), accountId, q.Get("denomination"), limit, offset)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": accountId, "transactions": records})
}

func (h *handler) reconcile(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "accountId")
	if err := h.ledger.Reconcile(r.Context(), accountId); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"account_id": accountId, "reconciled": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account_id": accountId, "reconciled": true})
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// statusFor maps the error taxonomy onto HTTP statuses
func statusFor(err error) int {
	switch store.Kind(err) {
	case "unknown_denomination", "invalid_amount", "invalid_account":
		return http.StatusBadRequest
	case "lock_timeout", "storage_unavailable":
		return http.StatusServiceUnavailable
	case "canceled":
		return http.StatusRequestTimeout
	}
	if store.IsValidation(err) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("Failed to encode JSON response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": store.Kind(err)})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
