package counterparty

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/mappings"
)

func rp(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

type fixture struct {
	ledger *journals.Service
	view   *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := journals.NewMemoryRepository()
	roles := mappings.NewResolver(nil)
	chart := accounts.NewService(accounts.NewMemoryRepository(accounts.DefaultChart()))
	return fixture{
		ledger: journals.NewService(repo, chart, roles, nil, nil),
		view:   NewService(repo, roles),
	}
}

func TestFoldRunningBalance(t *testing.T) {
	ts := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	id := uuid.New()
	entries := []journals.JournalEntry{
		{PostingID: id, Sequence: 3, Timestamp: ts.Add(time.Hour), Credit: rp(40000)},
		{PostingID: id, Sequence: 1, Timestamp: ts, Debit: rp(100000)},
		{PostingID: id, Sequence: 2, Timestamp: ts, Debit: rp(25000)},
	}

	rows := Fold(journals.KindCustomer, entries)
	require.Len(t, rows, 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{rows[0].Sequence, rows[1].Sequence, rows[2].Sequence})
	require.True(t, rows[0].Balance.Equal(rp(100000)))
	require.True(t, rows[1].Balance.Equal(rp(125000)))
	require.True(t, rows[2].Balance.Equal(rp(85000)))

	payable := Fold(journals.KindSupplier, entries)
	require.True(t, payable[2].Balance.Equal(rp(-85000)))

	require.Equal(t, rows, Fold(journals.KindCustomer, entries))
	require.Equal(t, int64(3), entries[0].Sequence, "input must not be reordered")
}

func TestLedgerForMatchesIndependentFold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := f.ledger.RecordCreditSale(ctx, rp(150000), "Budi", base, "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordCreditSale(ctx, rp(50000), "Budi", base, "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordCreditSale(ctx, rp(70000), "Siti", base, "kasir2")
	require.NoError(t, err)
	_, err = f.ledger.Record(ctx, journals.CustomerPayment{Customer: "Budi", Amount: rp(120000), ReferenceNumber: "PAY-1", Timestamp: base.Add(time.Hour), Actor: "kasir1"})
	require.NoError(t, err)

	rows, err := f.view.LedgerFor(ctx, journals.KindCustomer, "Budi", nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	running := decimal.Zero
	for i, row := range rows {
		running = running.Add(row.Debit).Sub(row.Credit)
		require.True(t, running.Equal(row.Balance), "row %d", i)
	}
	require.True(t, rows[2].Balance.Equal(rp(80000)))

	again, err := f.view.LedgerFor(ctx, journals.KindCustomer, "Budi", nil, nil)
	require.NoError(t, err)
	require.Equal(t, rows, again)

	out, err := f.view.Outstanding(ctx, journals.KindCustomer, "Budi")
	require.NoError(t, err)
	require.True(t, out.Equal(rp(80000)))
}

func TestLedgerForWindowStartsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	yesterday := time.Date(2025, 3, 9, 15, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.ledger.RecordCreditSale(ctx, rp(150000), "Budi", yesterday, "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordCreditSale(ctx, rp(20000), "Budi", today.Add(10*time.Hour), "kasir1")
	require.NoError(t, err)

	rows, err := f.view.LedgerFor(ctx, journals.KindCustomer, "Budi", &today, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Balance.Equal(rp(20000)), "window balance is not carried forward")

	full, err := f.view.Outstanding(ctx, journals.KindCustomer, "Budi")
	require.NoError(t, err)
	require.True(t, full.Equal(rp(170000)))
}

func TestSummaryByCounterparty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := f.ledger.RecordCreditSale(ctx, rp(150000), "Budi", ts, "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordCustomerPayment(ctx, "Budi", rp(150000), "PAY-1", "kasir1", "")
	require.NoError(t, err)
	_, err = f.ledger.RecordCreditSale(ctx, rp(30000), "Agus", ts, "kasir1")
	require.NoError(t, err)
	_, err = f.ledger.RecordPurchase(ctx, rp(400000), "CV Sumber", ts, "admin", false)
	require.NoError(t, err)
	_, err = f.ledger.RecordCashSale(ctx, rp(10000), ts, "kasir1")
	require.NoError(t, err)

	rows, err := f.view.Summary(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Agus", rows[0].Name)
	require.Equal(t, "Budi", rows[1].Name)
	require.True(t, rows[1].Outstanding.IsZero())
	require.Equal(t, 2, rows[1].TransactionCount)
	require.Equal(t, journals.KindSupplier, rows[2].Kind)
	require.True(t, rows[2].Outstanding.Equal(rp(400000)))

	supplier := journals.KindSupplier
	only, err := f.view.Summary(ctx, &supplier)
	require.NoError(t, err)
	require.Len(t, only, 1)
}

func TestLedgerForValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.view.LedgerFor(context.Background(), journals.KindCustomer, " ", nil, nil)
	require.Error(t, err)
	_, err = f.view.LedgerFor(context.Background(), Kind("EMPLOYEE"), "Budi", nil, nil)
	require.Error(t, err)
}

func TestLedgerHandler(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.RecordCreditSale(context.Background(), rp(150000), "Budi", time.Now(), "kasir1")
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(testLogger(), f.view).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customer/Budi", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Rows    []Row           `json:"rows"`
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	require.True(t, body.Balance.Equal(rp(150000)))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/employee/Budi", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
