package httpx

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kasirku/ledger/internal/platform/calendar"
)

// DateQuery parses an optional YYYY-MM-DD query parameter as a ledger day.
func DateQuery(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := calendar.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, key)
	}
	return &t, nil
}

// DateWindow reads inclusive from/to dates and returns the half-open
// interval [from, to+1day).
func DateWindow(r *http.Request) (from, to *time.Time, err error) {
	if from, err = DateQuery(r, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = DateQuery(r, "to"); err != nil {
		return nil, nil, err
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, fmt.Errorf("%w: from must not be after to", ErrValidation)
	}
	return from, to, nil
}
