package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/ledger/payments/customer")
	req := httptest.NewRequest(http.MethodPost, "/ledger/payments/customer", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusConflict, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_http_requests_total{code="409",route="/ledger/payments/customer"} 1`)
	require.Contains(t, body, `ledger_http_request_duration_seconds_bucket{route="/ledger/payments/customer"`)
}

func TestObservePostingOutcomes(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObservePosting("CASH_SALE", nil)
	metrics.ObservePosting("CASH_SALE", nil)
	metrics.ObservePosting("CUSTOMER_PAYMENT", fmt.Errorf("wrap: %w", shared.ErrAmountExceedsBalance))
	metrics.ObservePosting("CUSTOMER_PAYMENT", shared.ErrConcurrencyConflict)

	body := scrape(t, metrics)
	require.Contains(t, body, `ledger_postings_total{outcome="committed",reference_type="CASH_SALE"} 2`)
	require.Contains(t, body, `ledger_postings_total{outcome="rejected",reference_type="CUSTOMER_PAYMENT"} 1`)
	require.Contains(t, body, `ledger_postings_total{outcome="conflict",reference_type="CUSTOMER_PAYMENT"} 1`)
}

func TestPostingOutcome(t *testing.T) {
	require.Equal(t, "duplicate", PostingOutcome(shared.ErrAlreadyReversed))
	require.Equal(t, "store_error", PostingOutcome(shared.Persistence("insert", errors.New("eof"))))
	require.Equal(t, "rejected", PostingOutcome(shared.Invalid("amount", "required")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObservePosting("CASH_SALE", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
