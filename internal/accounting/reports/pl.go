package reports

import (
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/accounts"
)

// StatementLine is one account inside a report section.
type StatementLine struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Section groups statement lines under a label.
type Section struct {
	Label    string          `json:"label"`
	Accounts []StatementLine `json:"accounts"`
	Total    decimal.Decimal `json:"total"`
}

func newSection(label string) Section {
	return Section{Label: label, Total: decimal.Zero}
}

func (s *Section) add(line StatementLine) {
	s.Accounts = append(s.Accounts, line)
	s.Total = s.Total.Add(line.Amount)
}

// IncomeStatement (laba rugi) covers revenue and expense movement in range.
type IncomeStatement struct {
	Range     DateRange       `json:"range"`
	Revenue   Section         `json:"revenue"`
	Expense   Section         `json:"expense"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// BuildIncomeStatement aggregates period movement into revenue and expense
// sections. Balances arrive sorted by code.
func BuildIncomeStatement(balances []AccountBalance) IncomeStatement {
	revenue := newSection("Pendapatan")
	expense := newSection("Beban")
	for _, acc := range balances {
		movement := acc.Debit.Sub(acc.Credit)
		switch acc.Class {
		case accounts.ClassRevenue:
			revenue.add(StatementLine{Code: acc.Code, Name: acc.Name, Amount: movement.Neg()})
		case accounts.ClassExpense:
			expense.add(StatementLine{Code: acc.Code, Name: acc.Name, Amount: movement})
		}
	}
	return IncomeStatement{
		Revenue:   revenue,
		Expense:   expense,
		NetIncome: revenue.Total.Sub(expense.Total),
	}
}
