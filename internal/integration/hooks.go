package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/opname"
	"github.com/kasirku/ledger/internal/platform/calendar"
	"github.com/kasirku/ledger/jobs"
)

// Ledger exposes the posting operation the hooks need.
type Ledger interface {
	Record(ctx context.Context, txn journals.Transaction) (journals.Posting, error)
}

// CacheBumper invalidates cached report snapshots.
type CacheBumper interface {
	Bump(ctx context.Context) (int64, error)
}

// Enqueuer submits background tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Hooks connects ledger commits to report caching and stock opname results
// to the ledger.
type Hooks struct {
	ledger   Ledger
	cache    CacheBumper
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewHooks constructs integration hooks. Any dependency may be nil.
func NewHooks(ledger Ledger, cache CacheBumper, enqueuer Enqueuer, logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{ledger: ledger, cache: cache, enqueuer: enqueuer, logger: logger}
}

// LedgerChanged invalidates report snapshots and schedules a warm-up of the
// posting's month.
func (h *Hooks) LedgerChanged(ctx context.Context, evt journals.LedgerChangedEvent) error {
	if h == nil {
		return nil
	}
	var errs []error
	if h.cache != nil {
		version, err := h.cache.Bump(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("bump report cache: %w", err))
		} else {
			h.logger.Debug("report cache bumped", slog.Int64("version", version), slog.Int64("posting_number", evt.Number))
		}
	}
	if h.enqueuer != nil {
		task, err := jobs.NewReportSnapshotTask(jobs.ReportSnapshotPayload{Date: calendar.FormatInstant(evt.Timestamp)})
		if err == nil {
			_, err = h.enqueuer.EnqueueContext(ctx, task, snapshotOptions(evt.Timestamp)...)
		}
		if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
			errs = append(errs, fmt.Errorf("enqueue report snapshot: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PostVariance books a reconciled stock variance as an adjustment posting.
func (h *Hooks) PostVariance(ctx context.Context, result opname.Result, actor, referenceID string) (journals.Posting, error) {
	if h == nil || h.ledger == nil {
		return journals.Posting{}, errors.New("integration: ledger not configured")
	}
	direction, err := varianceDirection(result.Direction)
	if err != nil {
		return journals.Posting{}, err
	}
	return h.ledger.Record(ctx, journals.StockVarianceAdjustment{
		ItemID:        result.ItemID,
		ItemName:      result.ItemName,
		MonetaryValue: result.MonetaryValue,
		Direction:     direction,
		Actor:         actor,
		ReferenceID:   referenceID,
	})
}

// snapshotOptions collapses pending warm-ups for the same month.
func snapshotOptions(ts time.Time) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(jobs.QueueDefault),
		asynq.TaskID(jobs.TaskReportSnapshot + ":" + ts.In(calendar.Location()).Format("2006-01")),
		asynq.MaxRetry(3),
	}
}
