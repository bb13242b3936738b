package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/kasirku/ledger/internal/accounting/periods"
	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

// DateRange is an inclusive span of ledger days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Bounds returns the half-open instant interval [From, To+1day) with both
// days taken in the ledger location.
func (r DateRange) Bounds() (time.Time, time.Time) {
	return calendar.Day(r.From), calendar.Day(r.To).AddDate(0, 0, 1)
}

// Normalize pins both days to the ledger location.
func (r DateRange) Normalize() DateRange {
	return DateRange{From: calendar.Day(r.From), To: calendar.Day(r.To)}
}

func (r DateRange) String() string {
	return calendar.Format(r.From) + ".." + calendar.Format(r.To)
}

// Scope selects the report window: a stored period or an explicit range.
// There is no implicit current period.
type Scope struct {
	PeriodID int64
	Range    *DateRange
}

// PeriodReader loads financial periods by id.
type PeriodReader interface {
	Get(ctx context.Context, id int64) (periods.Period, error)
}

func resolveScope(ctx context.Context, reader PeriodReader, scope Scope) (DateRange, error) {
	switch {
	case scope.PeriodID > 0 && scope.Range != nil:
		return DateRange{}, shared.Invalid("scope", "choose a period or a date range, not both")
	case scope.PeriodID > 0:
		if reader == nil {
			return DateRange{}, shared.Invalid("period_id", "periods are not configured")
		}
		p, err := reader.Get(ctx, scope.PeriodID)
		if err != nil {
			return DateRange{}, err
		}
		return DateRange{From: p.StartDate, To: p.EndDate}.Normalize(), nil
	case scope.Range != nil:
		if scope.Range.From.IsZero() || scope.Range.To.IsZero() {
			return DateRange{}, shared.Invalid("range", "from and to required")
		}
		rng := scope.Range.Normalize()
		if rng.To.Before(rng.From) {
			return DateRange{}, shared.Invalid("range", fmt.Sprintf("to %s before from %s", calendar.Format(rng.To), calendar.Format(rng.From)))
		}
		return rng, nil
	}
	return DateRange{}, shared.Invalid("scope", "period_id or from/to required")
}
