package reports

import (
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/accounts"
)

// CurrentEarningsLabel names the equity line carrying unclosed net income.
const CurrentEarningsLabel = "Laba Tahun Berjalan"

// BalanceSheet (neraca) reports cumulative balances as of the range end.
// IsBalanced reports Assets == Liabilities + Equity + CurrentEarnings.
type BalanceSheet struct {
	AsOf                      DateRange       `json:"as_of"`
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    Section         `json:"equity"`
	CurrentEarnings           decimal.Decimal `json:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	IsBalanced                bool            `json:"is_balanced"`
}

// BuildBalanceSheet expects cumulative balances, either as opening amounts
// or as movements from the start of the ledger.
func BuildBalanceSheet(balances []AccountBalance) BalanceSheet {
	assets := newSection("Aset")
	liabilities := newSection("Kewajiban")
	equity := newSection("Ekuitas")
	earnings := decimal.Zero

	for _, acc := range balances {
		closing := acc.Closing()
		line := StatementLine{Code: acc.Code, Name: acc.Name}
		switch acc.Class {
		case accounts.ClassAsset:
			line.Amount = closing
			assets.add(line)
		case accounts.ClassLiability:
			line.Amount = closing.Neg()
			liabilities.add(line)
		case accounts.ClassEquity:
			line.Amount = closing.Neg()
			equity.add(line)
		case accounts.ClassRevenue, accounts.ClassExpense:
			earnings = earnings.Sub(closing)
		}
	}
	equity.add(StatementLine{Code: "", Name: CurrentEarningsLabel, Amount: earnings})

	total := liabilities.Total.Add(equity.Total)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		CurrentEarnings:           earnings,
		TotalLiabilitiesAndEquity: total,
		IsBalanced:                assets.Total.Equal(total),
	}
}
