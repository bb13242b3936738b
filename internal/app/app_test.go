package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/kasirku/ledger/internal/testing/guard"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://test@localhost/ledger")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 120, cfg.RateLimitPerMin)
	require.Equal(t, 5*time.Second, cfg.LockTimeout)
	require.Equal(t, 10*time.Minute, cfg.ReportCacheTTL)
	require.True(t, cfg.PeriodGuard)
	require.False(t, cfg.OpnameOnePerActorDaily)
	require.Equal(t, "15 1 * * *", cfg.IntegrityCron)
	require.Equal(t, "Asia/Jakarta", cfg.LedgerLocation.String())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsUnknownLedgerZone(t *testing.T) {
	t.Setenv("LEDGER_TZ", "Asia/Atlantis")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "LEDGER_TZ")
}

func TestLoadConfigRejectsNegativeTTL(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "-1m")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "REPORT_CACHE_TTL")
}

func TestInTestModeFromGuard(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthAndReadiness(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger: quietLogger(),
		Config: &Config{},
		Ready: map[string]Pinger{
			"postgres": pingerFunc(func(context.Context) error { return nil }),
			"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"postgres":"up","redis":"down"}`, rec.Body.String())
}

func TestWriteLimiterOnlyThrottlesWrites(t *testing.T) {
	handler := WriteLimiter(1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method string) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, "/ledger/cash-sales", nil))
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, do(http.MethodPost))
	require.Equal(t, http.StatusTooManyRequests, do(http.MethodPost))
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusNoContent, do(http.MethodGet))
	}
}
