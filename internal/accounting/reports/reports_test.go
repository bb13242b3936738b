package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/journals"
	_ "github.com/kasirku/ledger/testing"
)

func rp(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func entry(code string, debit, credit int64) journals.JournalEntry {
	return journals.JournalEntry{PostingID: uuid.New(), AccountCode: code, Debit: rp(debit), Credit: rp(credit)}
}

func TestBuildTrialBalance(t *testing.T) {
	chart := accounts.DefaultChart()
	within := []journals.JournalEntry{
		entry(accounts.CodeCash, 100000, 0),
		entry(accounts.CodeSalesRevenue, 0, 100000),
		entry(accounts.CodeReceivable, 50000, 0),
		entry(accounts.CodeSalesRevenue, 0, 50000),
	}
	tb := BuildTrialBalance(Accumulate(chart, nil, within))
	require.True(t, tb.TotalDebit.Equal(rp(150000)))
	require.True(t, tb.TotalCredit.Equal(rp(150000)))
	require.True(t, tb.IsBalanced)
	require.Len(t, tb.Groups, 2)

	rows := tb.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, accounts.CodeCash, rows[0].Code)
	require.Equal(t, accounts.CodeSalesRevenue, rows[2].Code)
	require.True(t, rows[2].EndingBalance.Equal(rp(150000)), "revenue ending is credit-normal")
}

func TestBuildTrialBalanceFlagsImbalance(t *testing.T) {
	within := []journals.JournalEntry{
		entry(accounts.CodeCash, 100000, 0),
		entry(accounts.CodeSalesRevenue, 0, 90000),
	}
	tb := BuildTrialBalance(Accumulate(accounts.DefaultChart(), nil, within))
	require.False(t, tb.IsBalanced)
	require.True(t, tb.TotalDebit.Equal(rp(100000)))
}

func TestAccumulateOpeningAndUnknownCodes(t *testing.T) {
	before := []journals.JournalEntry{entry(accounts.CodeCash, 500000, 0), entry(accounts.CodeOwnerEquity, 0, 500000)}
	within := []journals.JournalEntry{entry("8-0001", 10, 0)}
	balances := Accumulate(accounts.DefaultChart(), before, within)
	require.Len(t, balances, 3)
	require.Equal(t, accounts.CodeCash, balances[0].Code)
	require.True(t, balances[0].Opening.Equal(rp(500000)))
	require.True(t, balances[0].Closing().Equal(rp(500000)))
	require.Equal(t, "8-0001", balances[2].Code)
}

func TestBuildIncomeStatement(t *testing.T) {
	within := []journals.JournalEntry{
		entry(accounts.CodeSalesRevenue, 0, 1200000),
		entry(accounts.CodeCOGS, 300000, 0),
		entry(accounts.CodeOperatingExp, 200000, 0),
		entry(accounts.CodeCash, 700000, 0),
	}
	is := BuildIncomeStatement(Accumulate(accounts.DefaultChart(), nil, within))
	require.True(t, is.Revenue.Total.Equal(rp(1200000)))
	require.True(t, is.Expense.Total.Equal(rp(500000)))
	require.True(t, is.NetIncome.Equal(rp(700000)))
	require.Len(t, is.Expense.Accounts, 2)
}

func TestBuildBalanceSheetIncludesCurrentEarnings(t *testing.T) {
	all := []journals.JournalEntry{
		entry(accounts.CodeCash, 1000000, 0),
		entry(accounts.CodeOwnerEquity, 0, 1000000),
		entry(accounts.CodeCash, 100000, 0),
		entry(accounts.CodeSalesRevenue, 0, 100000),
		entry(accounts.CodeInventory, 300000, 0),
		entry(accounts.CodePayable, 0, 300000),
		entry(accounts.CodeStockVariance, 20000, 0),
		entry(accounts.CodeCash, 0, 20000),
	}
	bs := BuildBalanceSheet(Accumulate(accounts.DefaultChart(), all, nil))
	require.True(t, bs.Assets.Total.Equal(rp(1380000)))
	require.True(t, bs.Liabilities.Total.Equal(rp(300000)))
	require.True(t, bs.CurrentEarnings.Equal(rp(80000)))
	require.True(t, bs.Equity.Total.Equal(rp(1080000)))
	require.True(t, bs.TotalLiabilitiesAndEquity.Equal(rp(1380000)))
	require.True(t, bs.IsBalanced)
	require.Equal(t, CurrentEarningsLabel, bs.Equity.Accounts[len(bs.Equity.Accounts)-1].Name)
}

func TestDateRangeBounds(t *testing.T) {
	rng := DateRange{From: time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), To: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)}
	from, to := rng.Bounds()
	require.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), from)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), to)
}
