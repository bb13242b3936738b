package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kasirku/ledger/internal/accounting/reports"
	jobmetrics "github.com/kasirku/ledger/internal/jobs"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

// StatementGenerator renders all statements for a scope, filling the cache.
type StatementGenerator interface {
	Generate(ctx context.Context, scope reports.Scope) (reports.Statements, error)
}

// ReportSnapshotJob precomputes a month's statements after the ledger moves.
type ReportSnapshotJob struct {
	Reports StatementGenerator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportSnapshotJob initialises the snapshot handler.
func NewReportSnapshotJob(gen StatementGenerator, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportSnapshotJob {
	return &ReportSnapshotJob{Reports: gen, Logger: logger, Metrics: metrics}
}

// Handle executes the warm-up.
func (j *ReportSnapshotJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report snapshot: handler not configured")
	}
	var payload ReportSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	day, err := calendar.Parse(payload.Date)
	if err != nil {
		return fmt.Errorf("report snapshot: %w: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(TaskReportSnapshot)
	rng := MonthOf(day)
	stmts, err := j.Reports.Generate(ctx, reports.Scope{Range: &rng})
	if err != nil {
		j.logger().Error("report snapshot failed", slog.String("range", rng.String()), slog.Any("error", err))
		return tracker.End(err)
	}
	j.logger().Info("report snapshot warmed",
		slog.String("range", rng.String()),
		slog.Bool("trial_balance_balanced", stmts.TrialBalance.IsBalanced),
		slog.Bool("balance_sheet_balanced", stmts.BalanceSheet.IsBalanced),
	)
	return tracker.End(nil)
}

// MonthOf returns the ledger month containing day.
func MonthOf(day time.Time) reports.DateRange {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, calendar.Location())
	return reports.DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

func (j *ReportSnapshotJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger.With(slog.String("job", TaskReportSnapshot))
}
