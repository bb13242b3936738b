package httpx

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/platform/calendar"
)

func TestDateWindowInclusiveEnd(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?from=2025-03-01&to=2025-03-31", nil)
	from, to, err := DateWindow(r)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, calendar.Location()), *from)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, calendar.Location()), *to)
}

func TestDateWindowUsesLedgerZone(t *testing.T) {
	wib, err := calendar.Load("Asia/Jakarta")
	require.NoError(t, err)
	prev := calendar.Location()
	calendar.SetLocation(wib)
	t.Cleanup(func() { calendar.SetLocation(prev) })

	from, to, err := DateWindow(httptest.NewRequest("GET", "/x?from=2025-04-01&to=2025-04-01", nil))
	require.NoError(t, err)
	require.True(t, from.Equal(time.Date(2025, 3, 31, 17, 0, 0, 0, time.UTC)))
	require.True(t, to.Equal(time.Date(2025, 4, 1, 17, 0, 0, 0, time.UTC)))
}

func TestDateWindowOptionalAndInvalid(t *testing.T) {
	from, to, err := DateWindow(httptest.NewRequest("GET", "/x", nil))
	require.NoError(t, err)
	require.Nil(t, from)
	require.Nil(t, to)

	_, _, err = DateWindow(httptest.NewRequest("GET", "/x?from=03-01-2025", nil))
	require.True(t, errors.Is(err, ErrValidation))

	_, _, err = DateWindow(httptest.NewRequest("GET", "/x?from=2025-04-02&to=2025-04-01", nil))
	require.True(t, errors.Is(err, ErrValidation))
}

func TestRespondErrorHidesServerDetail(t *testing.T) {
	boom := errors.New("dial tcp 10.0.0.1:5432: refused")
	rec := httptest.NewRecorder()
	RespondErrorWith(rec, boom, Mapping{Err: boom, Status: 503, Title: "Unavailable"})
	require.Equal(t, 503, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.1")
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	RespondError(rec, errors.Join(ErrNotFound, errors.New("posting 42")))
	require.Equal(t, 404, rec.Code)
	require.Contains(t, rec.Body.String(), "posting 42")
}
