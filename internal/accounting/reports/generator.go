package reports

import (
	"context"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

// buildTimeout bounds a shared report build once it no longer follows the
// context of the caller that started it.
const buildTimeout = 2 * time.Minute

// EntrySource reads ledger lines.
type EntrySource interface {
	ListEntries(ctx context.Context, filter journals.EntryFilter) ([]journals.JournalEntry, error)
	Watermark(ctx context.Context) (int64, error)
}

// ChartReader lists the chart of accounts.
type ChartReader interface {
	List(ctx context.Context, class *accounts.AccountClass) ([]accounts.Account, error)
}

// SnapshotCache stores rendered reports. It is never authoritative.
type SnapshotCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// Generator builds financial statements on demand from the ledger.
type Generator struct {
	entries EntrySource
	chart   ChartReader
	periods PeriodReader
	cache   SnapshotCache
	logger  *slog.Logger
	group   singleflight.Group
}

// NewGenerator wires the generator. cache may be nil.
func NewGenerator(entries EntrySource, chart ChartReader, periods PeriodReader, cache SnapshotCache, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{entries: entries, chart: chart, periods: periods, cache: cache, logger: logger}
}

// Statements bundles the three reports for one scope.
type Statements struct {
	TrialBalance    TrialBalance    `json:"trial_balance"`
	IncomeStatement IncomeStatement `json:"income_statement"`
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
}

func (g *Generator) TrialBalance(ctx context.Context, scope Scope) (TrialBalance, error) {
	rng, err := resolveScope(ctx, g.periods, scope)
	if err != nil {
		return TrialBalance{}, err
	}
	var out TrialBalance
	err = g.cached(ctx, "tb", rng, &out, func(ctx context.Context) (any, error) {
		balances, err := g.periodBalances(ctx, rng)
		if err != nil {
			return nil, err
		}
		tb := BuildTrialBalance(balances)
		tb.Range = rng
		if !tb.IsBalanced {
			g.logger.Error("trial balance out of balance",
				slog.String("range", rng.String()),
				slog.String("debit", tb.TotalDebit.StringFixed(2)),
				slog.String("credit", tb.TotalCredit.StringFixed(2)))
		}
		return tb, nil
	})
	return out, err
}

func (g *Generator) IncomeStatement(ctx context.Context, scope Scope) (IncomeStatement, error) {
	rng, err := resolveScope(ctx, g.periods, scope)
	if err != nil {
		return IncomeStatement{}, err
	}
	var out IncomeStatement
	err = g.cached(ctx, "pl", rng, &out, func(ctx context.Context) (any, error) {
		balances, err := g.periodBalances(ctx, rng)
		if err != nil {
			return nil, err
		}
		is := BuildIncomeStatement(balances)
		is.Range = rng
		return is, nil
	})
	return out, err
}

func (g *Generator) BalanceSheet(ctx context.Context, scope Scope) (BalanceSheet, error) {
	rng, err := resolveScope(ctx, g.periods, scope)
	if err != nil {
		return BalanceSheet{}, err
	}
	var out BalanceSheet
	err = g.cached(ctx, "bs", rng, &out, func(ctx context.Context) (any, error) {
		_, end := rng.Bounds()
		chart, entries, err := g.load(ctx, journals.EntryFilter{To: &end})
		if err != nil {
			return nil, err
		}
		bs := BuildBalanceSheet(Accumulate(chart, entries, nil))
		bs.AsOf = rng
		if !bs.IsBalanced {
			g.logger.Error("balance sheet out of balance",
				slog.String("range", rng.String()),
				slog.String("assets", bs.Assets.Total.StringFixed(2)),
				slog.String("liabilities_equity", bs.TotalLiabilitiesAndEquity.StringFixed(2)))
		}
		return bs, nil
	})
	return out, err
}

// Generate builds all three statements concurrently.
func (g *Generator) Generate(ctx context.Context, scope Scope) (Statements, error) {
	var out Statements
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		out.TrialBalance, err = g.TrialBalance(ctx, scope)
		return err
	})
	eg.Go(func() (err error) {
		out.IncomeStatement, err = g.IncomeStatement(ctx, scope)
		return err
	})
	eg.Go(func() (err error) {
		out.BalanceSheet, err = g.BalanceSheet(ctx, scope)
		return err
	})
	if err := eg.Wait(); err != nil {
		return Statements{}, err
	}
	return out, nil
}

func (g *Generator) periodBalances(ctx context.Context, rng DateRange) ([]AccountBalance, error) {
	from, to := rng.Bounds()
	var (
		chart          []accounts.Account
		before, within []journals.JournalEntry
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		chart, err = g.chart.List(ctx, nil)
		return err
	})
	eg.Go(func() (err error) {
		before, err = g.entries.ListEntries(ctx, journals.EntryFilter{To: &from})
		return err
	})
	eg.Go(func() (err error) {
		within, err = g.entries.ListEntries(ctx, journals.EntryFilter{From: &from, To: &to})
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return Accumulate(chart, before, within), nil
}

func (g *Generator) load(ctx context.Context, filter journals.EntryFilter) ([]accounts.Account, []journals.JournalEntry, error) {
	var (
		chart   []accounts.Account
		entries []journals.JournalEntry
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		chart, err = g.chart.List(ctx, nil)
		return err
	})
	eg.Go(func() (err error) {
		entries, err = g.entries.ListEntries(ctx, filter)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return chart, entries, nil
}

// cached collapses concurrent builds of the same report and consults the
// snapshot cache. Keys carry the ledger watermark read before the build, so a
// stored report is never served after a later commit. Cache failures fall back
// to a direct build.
func (g *Generator) cached(ctx context.Context, kind string, rng DateRange, dest any, build func(context.Context) (any, error)) error {
	parts := []string{kind, calendar.Key(), calendar.Format(rng.From), calendar.Format(rng.To)}
	mark, err := g.entries.Watermark(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.logger.Warn("ledger watermark", slog.String("report", kind), slog.Any("error", err))
		return g.flight(ctx, strings.Join(append(parts, "live"), "|"), dest, build)
	}
	parts = append(parts, "w"+strconv.FormatInt(mark, 10))
	flightKey := strings.Join(parts, "|")
	if g.cache == nil {
		return g.flight(ctx, flightKey, dest, build)
	}
	key, err := g.cache.BuildKey(ctx, append([]string{"reports"}, parts...)...)
	if err != nil {
		g.logger.Warn("report cache key", slog.String("report", kind), slog.Any("error", err))
		return g.flight(ctx, flightKey, dest, build)
	}
	var buildErr error
	err = g.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
		v, err := g.share(ctx, flightKey, build)
		buildErr = err
		return v, err
	})
	if err == nil || buildErr != nil || ctx.Err() != nil {
		return err
	}
	g.logger.Warn("report cache fetch", slog.String("report", kind), slog.Any("error", err))
	return g.flight(ctx, flightKey, dest, build)
}

func (g *Generator) flight(ctx context.Context, key string, dest any, build func(context.Context) (any, error)) error {
	v, err := g.share(ctx, key, build)
	if err != nil {
		return err
	}
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(v))
	return nil
}

// share runs build once per key for all concurrent callers. The build outlives
// any single caller; each caller stops waiting when its own context ends.
func (g *Generator) share(ctx context.Context, key string, build func(context.Context) (any, error)) (any, error) {
	ch := g.group.DoChan(key, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		return build(bctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
