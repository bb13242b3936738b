package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func useJakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := Load("Asia/Jakarta")
	require.NoError(t, err)
	prev := Location()
	SetLocation(loc)
	t.Cleanup(func() { SetLocation(prev) })
	return loc
}

func TestDayKeepsDateAcrossZones(t *testing.T) {
	wib := useJakarta(t)

	fromColumn := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fromQuery, err := Parse("2025-03-01")
	require.NoError(t, err)

	require.True(t, Day(fromColumn).Equal(fromQuery))
	require.Equal(t, wib, Day(fromColumn).Location())
	require.Equal(t, "2025-03-01", Format(fromColumn))
}

func TestDayOfCutsInstantInLedgerZone(t *testing.T) {
	useJakarta(t)

	instant := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-04-01", FormatInstant(instant))
	require.Equal(t, "2025-04-01", Format(DayOf(instant)))
}

func TestLoadRejectsUnknownZone(t *testing.T) {
	_, err := Load("Mars/Olympus")
	require.Error(t, err)

	loc, err := Load("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestSetLocationNilResets(t *testing.T) {
	useJakarta(t)
	SetLocation(nil)
	require.Equal(t, "UTC", Key())
}
