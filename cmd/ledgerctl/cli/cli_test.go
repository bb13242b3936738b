package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/reports"
	"github.com/kasirku/ledger/internal/opname"
	"github.com/kasirku/ledger/jobs"
)

func TestParseDay(t *testing.T) {
	day, err := parseDay("from", "2024-03-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), day)

	_, err = parseDay("from", "15/03/2024")
	require.ErrorContains(t, err, "--from")
}

func TestScopeFromFlags(t *testing.T) {
	scope, err := scopeFromFlags(7, "", "")
	require.NoError(t, err)
	require.Equal(t, int64(7), scope.PeriodID)
	require.Nil(t, scope.Range)

	scope, err = scopeFromFlags(0, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.NotNil(t, scope.Range)
	require.Equal(t, "2024-01-01..2024-01-31", scope.Range.String())

	_, err = scopeFromFlags(7, "2024-01-01", "")
	require.Error(t, err)

	_, err = scopeFromFlags(0, "2024-01-01", "")
	require.ErrorContains(t, err, "required")
}

func TestRenderTrialBalance(t *testing.T) {
	tb := reports.TrialBalance{
		Range: reports.DateRange{
			From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		Groups: []reports.TrialBalanceGroup{{
			Key: "1",
			Accounts: []reports.TrialBalanceRow{
				{Code: "1-1000", Name: "Kas", Debit: decimal.NewFromInt(150000), EndingBalance: decimal.NewFromInt(150000)},
			},
		}, {
			Key: "4",
			Accounts: []reports.TrialBalanceRow{
				{Code: "4-1000", Name: "Penjualan", Credit: decimal.NewFromInt(150000), EndingBalance: decimal.NewFromInt(-150000)},
			},
		}},
		TotalDebit:  decimal.NewFromInt(150000),
		TotalCredit: decimal.NewFromInt(150000),
		IsBalanced:  true,
	}

	var buf bytes.Buffer
	require.NoError(t, renderTrialBalance(&buf, tb))
	out := buf.String()
	require.Contains(t, out, "Neraca Saldo 2024-01-01..2024-01-31")
	require.Contains(t, out, "1-1000")
	require.Contains(t, out, "Penjualan")
	require.Contains(t, out, "Rp 150.000")
	require.NotContains(t, out, "PERINGATAN")

	tb.IsBalanced = false
	buf.Reset()
	require.NoError(t, renderTrialBalance(&buf, tb))
	require.Contains(t, buf.String(), "PERINGATAN")
}

func TestRenderRecap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderRecap(&buf, nil))
	require.Contains(t, buf.String(), "Tidak ada")

	buf.Reset()
	require.NoError(t, renderRecap(&buf, []opname.Result{{
		ItemID:           "SKU-1",
		ItemName:         "Gula 1kg",
		SystemQuantity:   decimal.NewFromInt(10),
		TotalSubmitted:   decimal.NewFromInt(8),
		Variance:         decimal.NewFromInt(-2),
		MonetaryValue:    decimal.NewFromInt(30000),
		Direction:        opname.DirectionShortage,
		ContributorCount: 2,
	}, {
		ItemID:         "SKU-9",
		CatalogMissing: true,
	}}))
	out := buf.String()
	require.Contains(t, out, "Gula 1kg")
	require.Contains(t, out, "Rp 30.000")
	require.Contains(t, out, "tidak ada di katalog")
}

func TestTriggerRejectsUnknownJob(t *testing.T) {
	c := NewJobsCLI(asynq.RedisClientOpt{Addr: "127.0.0.1:0"})
	defer func() { _ = c.Close() }()
	_, err := c.Trigger(context.Background(), "inventory:revaluation", time.Now())
	require.ErrorContains(t, err, "unsupported task")
}

func TestJobsCLIWithoutClient(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskReportSnapshot, time.Now())
	require.Error(t, err)
	_, err = c.InspectQueue()
	require.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "trial-balance", "recap", "integrity", "jobs"} {
		require.True(t, names[want], want)
	}
}

type queueStub struct {
	task *asynq.Task
	opts []asynq.Option
}

func (q *queueStub) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.task, q.opts = task, opts
	return &asynq.TaskInfo{ID: "t-9", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func TestEnqueueIntegrityHandsWindowToWorker(t *testing.T) {
	q := &queueStub{}
	var buf bytes.Buffer
	require.NoError(t, enqueueIntegrity(context.Background(), q, &buf, "2025-03-01", "2025-03-31"))
	require.Equal(t, jobs.TaskLedgerIntegrity, q.task.Type())
	require.JSONEq(t, `{"from":"2025-03-01","to":"2025-03-31"}`, string(q.task.Payload()))
	require.Contains(t, buf.String(), "id=t-9")

	q = &queueStub{}
	require.Error(t, enqueueIntegrity(context.Background(), q, &buf, "01-03-2025", ""))
	require.Nil(t, q.task)
}

func TestIntegrityCommandHasEnqueueFlag(t *testing.T) {
	require.NotNil(t, newIntegrityCommand().Flags().Lookup("enqueue"))
}
