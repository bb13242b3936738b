package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/journals"
	jobmetrics "github.com/kasirku/ledger/internal/jobs"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

// EntryLister reads ledger lines.
type EntryLister interface {
	ListEntries(ctx context.Context, filter journals.EntryFilter) ([]journals.JournalEntry, error)
}

// UnbalancedPosting is a posting whose lines do not net to zero.
type UnbalancedPosting struct {
	PostingID uuid.UUID       `json:"posting_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// IntegrityReport summarises one scan.
type IntegrityReport struct {
	Postings    int                 `json:"postings"`
	Lines       int                 `json:"lines"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	Unbalanced  []UnbalancedPosting `json:"unbalanced"`
}

// OK reports whether the scanned ledger satisfies double entry.
func (r IntegrityReport) OK() bool {
	return len(r.Unbalanced) == 0 && r.TotalDebit.Equal(r.TotalCredit)
}

// LedgerIntegrityJob re-derives per-posting totals from stored lines.
type LedgerIntegrityJob struct {
	Entries EntryLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity handler.
func NewLedgerIntegrityJob(entries EntryLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Entries: entries, Logger: logger, Metrics: metrics}
}

// Handle runs the check for the task's window.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Entries == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	from, err := parseOptionalDate(payload.From)
	if err != nil {
		return fmt.Errorf("ledger integrity: from: %w: %w", err, asynq.SkipRetry)
	}
	to, err := parseOptionalDate(payload.To)
	if err != nil {
		return fmt.Errorf("ledger integrity: to: %w: %w", err, asynq.SkipRetry)
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		to = &next
	}
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	_, err = j.Check(ctx, from, to)
	return tracker.End(err)
}

// Check scans entries in [from, to) and logs every unbalanced posting.
func (j *LedgerIntegrityJob) Check(ctx context.Context, from, to *time.Time) (IntegrityReport, error) {
	entries, err := j.Entries.ListEntries(ctx, journals.EntryFilter{From: from, To: to})
	if err != nil {
		return IntegrityReport{}, err
	}
	report := Inspect(entries)
	logger := j.logger()
	for _, u := range report.Unbalanced {
		logger.Error("unbalanced posting",
			slog.String("posting_id", u.PostingID.String()),
			slog.String("debit", u.Debit.StringFixed(2)),
			slog.String("credit", u.Credit.StringFixed(2)),
		)
	}
	j.Metrics.AddViolations("unbalanced_posting", len(report.Unbalanced))
	logger.Info("ledger integrity checked",
		slog.Int("postings", report.Postings),
		slog.Int("lines", report.Lines),
		slog.Bool("ok", report.OK()),
	)
	return report, nil
}

// Inspect folds entries into per-posting totals.
func Inspect(entries []journals.JournalEntry) IntegrityReport {
	type totals struct{ debit, credit decimal.Decimal }
	byPosting := make(map[uuid.UUID]*totals)
	report := IntegrityReport{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero, Unbalanced: []UnbalancedPosting{}}
	for _, e := range entries {
		tot, ok := byPosting[e.PostingID]
		if !ok {
			tot = &totals{debit: decimal.Zero, credit: decimal.Zero}
			byPosting[e.PostingID] = tot
		}
		tot.debit = tot.debit.Add(e.Debit)
		tot.credit = tot.credit.Add(e.Credit)
		report.TotalDebit = report.TotalDebit.Add(e.Debit)
		report.TotalCredit = report.TotalCredit.Add(e.Credit)
		report.Lines++
	}
	report.Postings = len(byPosting)
	for id, tot := range byPosting {
		if !tot.debit.Equal(tot.credit) {
			report.Unbalanced = append(report.Unbalanced, UnbalancedPosting{PostingID: id, Debit: tot.debit, Credit: tot.credit})
		}
	}
	sort.Slice(report.Unbalanced, func(i, k int) bool {
		return report.Unbalanced[i].PostingID.String() < report.Unbalanced[k].PostingID.String()
	})
	return report
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := calendar.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
}
