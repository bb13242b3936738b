// Package calendar pins ledger days to one configured location so that a day
// means the same span of instants whether it came from HTTP, the CLI, a job or
// a DATE column.
package calendar

import (
	"fmt"
	"sync/atomic"
	"time"
	_ "time/tzdata"
)

// DateLayout is the wire format of a ledger day.
const DateLayout = "2006-01-02"

var location atomic.Pointer[time.Location]

func init() {
	location.Store(time.UTC)
}

// Location returns the ledger location.
func Location() *time.Location {
	return location.Load()
}

// SetLocation changes the ledger location. Nil resets it to UTC.
func SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	location.Store(loc)
}

// Load resolves an IANA zone name such as "Asia/Jakarta".
func Load(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("calendar: unknown location %q: %w", name, err)
	}
	return loc, nil
}

// Day keeps the calendar date of t as written and returns midnight of that
// date in the ledger location. Use it for values that already name a day,
// such as DATE columns or parsed query strings.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, Location())
}

// DayOf returns the ledger day an instant falls on.
func DayOf(instant time.Time) time.Time {
	return Day(instant.In(Location()))
}

// Parse reads a DateLayout string as a ledger day.
func Parse(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, Location())
}

// Format renders the date of a ledger day.
func Format(day time.Time) string {
	return Day(day).Format(DateLayout)
}

// FormatInstant renders the ledger day an instant falls on.
func FormatInstant(instant time.Time) string {
	return instant.In(Location()).Format(DateLayout)
}

// Key identifies the location in cache keys.
func Key() string {
	return Location().String()
}
