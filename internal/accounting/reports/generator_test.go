package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/mappings"
	"github.com/kasirku/ledger/internal/accounting/periods"
	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/cache"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

type countingSource struct {
	inner   journals.Repository
	calls   atomic.Int64
	err     error
	markErr error
	// hold, when set, parks every ListEntries call until it is closed.
	hold    chan struct{}
	entered chan struct{}
}

func (c *countingSource) ListEntries(ctx context.Context, filter journals.EntryFilter) ([]journals.JournalEntry, error) {
	c.calls.Add(1)
	if c.hold != nil {
		select {
		case c.entered <- struct{}{}:
		default:
		}
		select {
		case <-c.hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.ListEntries(ctx, filter)
}

func (c *countingSource) Watermark(ctx context.Context) (int64, error) {
	if c.markErr != nil {
		return 0, c.markErr
	}
	return c.inner.Watermark(ctx)
}

// bumpOnChange mirrors the production notifier: it bumps the snapshot
// version after every commit and reports Redis errors.
type bumpOnChange struct {
	cache *cache.Versioned
}

func (b bumpOnChange) LedgerChanged(ctx context.Context, evt journals.LedgerChangedEvent) error {
	_, err := b.cache.Bump(ctx)
	return err
}

type periodStub map[int64]periods.Period

func (p periodStub) Get(ctx context.Context, id int64) (periods.Period, error) {
	if period, ok := p[id]; ok {
		return period, nil
	}
	return periods.Period{}, shared.ErrNotFound
}

type fixture struct {
	redis     *miniredis.Miniredis
	ledger    *journals.Service
	source    *countingSource
	cache     *cache.Versioned
	generator *Generator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := journals.NewMemoryRepository()
	chart := accounts.NewService(accounts.NewMemoryRepository(accounts.DefaultChart()))
	ledger := journals.NewService(repo, chart, mappings.NewResolver(nil), nil, nil)
	source := &countingSource{inner: repo}
	snapshots := cache.NewVersioned(client, "reports", time.Minute)
	ledger.WithNotifier(bumpOnChange{cache: snapshots})
	march := periods.Period{ID: 3, Name: "Maret 2025", StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), Status: periods.PeriodStatusOpen}
	gen := NewGenerator(source, chart, periodStub{3: march}, snapshots, nil)
	return fixture{redis: mr, ledger: ledger, source: source, cache: snapshots, generator: gen}
}

func march(day int) time.Time {
	return time.Date(2025, 3, day, 10, 0, 0, 0, time.UTC)
}

func TestTrialBalanceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordCashSale(ctx, rp(100000), march(5), "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordCreditSale(ctx, rp(50000), "Budi", march(6), "kasir1")
	require.NoError(t, err)

	tb, err := f.generator.TrialBalance(ctx, Scope{PeriodID: 3})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(rp(150000)))
	require.True(t, tb.TotalCredit.Equal(rp(150000)))
	require.True(t, tb.IsBalanced)

	is, err := f.generator.IncomeStatement(ctx, Scope{Range: &DateRange{From: march(1), To: march(31)}})
	require.NoError(t, err)
	require.True(t, is.NetIncome.Equal(rp(150000)))

	bs, err := f.generator.BalanceSheet(ctx, Scope{PeriodID: 3})
	require.NoError(t, err)
	require.True(t, bs.IsBalanced)
	require.True(t, bs.Assets.Total.Equal(rp(150000)))
}

func TestTrialBalanceUsesOpeningFromBeforeRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordManualJournal(ctx, []journals.PostingLineInput{
		{AccountCode: accounts.CodeCash, Debit: rp(1000000)},
		{AccountCode: accounts.CodeOwnerEquity, Credit: rp(1000000)},
	}, "admin", "Modal awal")
	require.NoError(t, err)
	_, err = f.ledger.RecordCashSale(ctx, rp(25000), time.Now().AddDate(0, 0, 10), "kasir1")
	require.NoError(t, err)

	today := time.Now().AddDate(0, 0, 5)
	tb, err := f.generator.TrialBalance(ctx, Scope{Range: &DateRange{From: today, To: today.AddDate(0, 0, 30)}})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(rp(25000)))
	require.True(t, tb.TotalOpening.IsZero(), "opening balances net to zero")
	rows := tb.Rows()
	require.Equal(t, accounts.CodeCash, rows[0].Code)
	require.True(t, rows[0].Opening.Equal(rp(1000000)))
	require.True(t, rows[0].EndingBalance.Equal(rp(1025000)))
}

func TestReportCacheRefreshedByCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordCashSale(ctx, rp(100000), march(5), "kasir1")
	require.NoError(t, err)

	scope := Scope{PeriodID: 3}
	_, err = f.generator.TrialBalance(ctx, scope)
	require.NoError(t, err)
	loads := f.source.calls.Load()
	_, err = f.generator.TrialBalance(ctx, scope)
	require.NoError(t, err)
	require.Equal(t, loads, f.source.calls.Load(), "second read served from cache")

	_, err = f.ledger.RecordCashSale(ctx, rp(40000), march(7), "kasir1")
	require.NoError(t, err)

	tb, err := f.generator.TrialBalance(ctx, scope)
	require.NoError(t, err)
	require.Greater(t, f.source.calls.Load(), loads)
	require.True(t, tb.TotalDebit.Equal(rp(140000)))
}

func TestCommitVisibleWhenVersionBumpFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordCashSale(ctx, rp(100000), march(5), "kasir1")
	require.NoError(t, err)

	scope := Scope{PeriodID: 3}
	tb, err := f.generator.TrialBalance(ctx, scope)
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(rp(100000)))
	before, err := f.cache.Version(ctx)
	require.NoError(t, err)

	f.redis.SetError("LOADING transient")
	_, err = f.ledger.RecordCashSale(ctx, rp(40000), march(7), "kasir1")
	require.NoError(t, err, "a failed bump must not fail the posting")
	f.redis.SetError("")

	after, err := f.cache.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after, "version was not bumped")

	tb, err = f.generator.TrialBalance(ctx, scope)
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(rp(140000)))
}

func TestWatermarkFailureBypassesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordCashSale(ctx, rp(100000), march(5), "kasir1")
	require.NoError(t, err)
	_, err = f.generator.TrialBalance(ctx, Scope{PeriodID: 3})
	require.NoError(t, err)

	f.source.markErr = errors.New("watermark unavailable")
	loads := f.source.calls.Load()
	tb, err := f.generator.TrialBalance(ctx, Scope{PeriodID: 3})
	require.NoError(t, err)
	require.Greater(t, f.source.calls.Load(), loads, "built from the ledger")
	require.True(t, tb.TotalDebit.Equal(rp(100000)))
}

func TestPeriodAndRangeAgreeInLedgerZone(t *testing.T) {
	wib, err := calendar.Load("Asia/Jakarta")
	require.NoError(t, err)
	prev := calendar.Location()
	calendar.SetLocation(wib)
	t.Cleanup(func() { calendar.SetLocation(prev) })

	f := newFixture(t)
	ctx := context.Background()
	// 2025-03-31 20:00 UTC is already April 1 in Jakarta.
	_, err = f.ledger.RecordCashSale(ctx, rp(100000), time.Date(2025, 4, 1, 3, 0, 0, 0, wib), "kasir1")
	require.NoError(t, err)

	from, err := calendar.Parse("2025-03-01")
	require.NoError(t, err)
	to, err := calendar.Parse("2025-03-31")
	require.NoError(t, err)

	byRange, err := f.generator.TrialBalance(ctx, Scope{Range: &DateRange{From: from, To: to}})
	require.NoError(t, err)
	byPeriod, err := f.generator.TrialBalance(ctx, Scope{PeriodID: 3})
	require.NoError(t, err)
	require.True(t, byRange.TotalDebit.IsZero())
	require.True(t, byPeriod.TotalDebit.IsZero())

	april := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	tb, err := f.generator.TrialBalance(ctx, Scope{Range: &DateRange{From: april, To: april}})
	require.NoError(t, err)
	require.True(t, tb.TotalDebit.Equal(rp(100000)))

	start, end := DateRange{From: april, To: april}.Normalize().Bounds()
	require.True(t, start.Equal(time.Date(2025, 3, 31, 17, 0, 0, 0, time.UTC)))
	require.True(t, end.Equal(time.Date(2025, 4, 1, 17, 0, 0, 0, time.UTC)))
}

func TestCancelledCallerDoesNotFailSharedBuild(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.RecordCashSale(context.Background(), rp(100000), march(5), "kasir1")
	require.NoError(t, err)
	f.source.hold = make(chan struct{})
	f.source.entered = make(chan struct{}, 1)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.generator.TrialBalance(first, Scope{PeriodID: 3})
		firstErr <- err
	}()
	<-f.source.entered

	type result struct {
		tb  TrialBalance
		err error
	}
	second := make(chan result, 1)
	go func() {
		tb, err := f.generator.TrialBalance(context.Background(), Scope{PeriodID: 3})
		second <- result{tb, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(f.source.hold)
	res := <-second
	require.NoError(t, res.err)
	require.True(t, res.tb.TotalDebit.Equal(rp(100000)))
	require.EqualValues(t, 2, f.source.calls.Load(), "one build served both callers")
}

func TestGenerateIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ledger.RecordCreditSale(ctx, rp(50000), "Budi", march(2), "kasir1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Statements, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := f.generator.Generate(ctx, Scope{PeriodID: 3})
			assert.NoError(t, err)
			results[i] = st
		}(i)
	}
	wg.Wait()
	for _, st := range results[1:] {
		require.True(t, st.TrialBalance.TotalDebit.Equal(results[0].TrialBalance.TotalDebit))
		require.True(t, st.BalanceSheet.Assets.Total.Equal(results[0].BalanceSheet.Assets.Total))
	}

	entries, err := f.source.inner.ListEntries(ctx, journals.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestScopeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.generator.TrialBalance(ctx, Scope{})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.generator.TrialBalance(ctx, Scope{PeriodID: 99})
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.generator.TrialBalance(ctx, Scope{Range: &DateRange{From: march(10), To: march(1)}})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLedgerErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	f.source.err = shared.Persistence("list entries", errors.New("connection reset"))
	_, err := f.generator.TrialBalance(context.Background(), Scope{PeriodID: 3})
	require.ErrorIs(t, err, shared.ErrPersistence)
}

func TestReportHandler(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.RecordCashSale(context.Background(), rp(100000), march(5), "kasir1")
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(discardLogger(), f.generator).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trial-balance?period_id=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tb TrialBalance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tb))
	require.True(t, tb.IsBalanced)
	require.True(t, tb.TotalCredit.Equal(rp(100000)))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/balance-sheet", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/income-statement?from=2025-03-01&to=2025-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
