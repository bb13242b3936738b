package periods

import (
	"time"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Period represents a fiscal period window. EndDate is inclusive.
type Period struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"start_date"`
	EndDate   time.Time    `json:"end_date"`
	Status    PeriodStatus `json:"status"`
	ClosedAt  *time.Time   `json:"closed_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Covers reports whether ts falls on a ledger day inside the period.
func (p Period) Covers(ts time.Time) bool {
	day := calendar.DayOf(ts)
	return !day.Before(calendar.Day(p.StartDate)) && !day.After(calendar.Day(p.EndDate))
}

// CreateInput describes a new period.
type CreateInput struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

func (in CreateInput) Validate() error {
	if in.Name == "" {
		return shared.Invalid("name", "required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return shared.Invalid("dates", "start and end date required")
	}
	if in.EndDate.Before(in.StartDate) {
		return shared.Invalid("end_date", "before start date")
	}
	return nil
}
