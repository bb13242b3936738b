package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/journals"
)

// AccountBalance models a ledger account with aggregated movements.
// Opening and the closing balance are debit-positive.
type AccountBalance struct {
	Code       string                `json:"code"`
	Name       string                `json:"name"`
	Class      accounts.AccountClass `json:"class"`
	NormalSide accounts.NormalSide   `json:"normal_side"`
	Opening    decimal.Decimal       `json:"opening"`
	Debit      decimal.Decimal       `json:"debit"`
	Credit     decimal.Decimal       `json:"credit"`
}

// Closing computes the debit-positive closing balance.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Opening.Add(a.Debit).Sub(a.Credit)
}

// Ending is the closing balance expressed on the account's normal side.
func (a AccountBalance) Ending() decimal.Decimal {
	if a.NormalSide == accounts.SideCredit {
		return a.Closing().Neg()
	}
	return a.Closing()
}

func (a AccountBalance) empty() bool {
	return a.Opening.IsZero() && a.Debit.IsZero() && a.Credit.IsZero()
}

// GroupKey returns the leading digit of the account code.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "-"); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 1 {
		return a.Code[:1]
	}
	return a.Code
}

// Accumulate folds entries onto the chart. Entries in before feed the
// opening balance, entries in within the period movement. Accounts without
// any amount are dropped; lines on codes missing from the chart are kept
// under their code so totals still reflect the ledger.
func Accumulate(chart []accounts.Account, before, within []journals.JournalEntry) []AccountBalance {
	byCode := make(map[string]*AccountBalance, len(chart))
	for _, acc := range chart {
		byCode[acc.Code] = &AccountBalance{
			Code:       acc.Code,
			Name:       acc.Name,
			Class:      acc.Class,
			NormalSide: acc.NormalSide,
			Opening:    decimal.Zero,
			Debit:      decimal.Zero,
			Credit:     decimal.Zero,
		}
	}
	get := func(code string) *AccountBalance {
		if b, ok := byCode[code]; ok {
			return b
		}
		b := &AccountBalance{Code: code, Name: code, NormalSide: accounts.SideDebit, Opening: decimal.Zero, Debit: decimal.Zero, Credit: decimal.Zero}
		byCode[code] = b
		return b
	}
	for _, e := range before {
		b := get(e.AccountCode)
		b.Opening = b.Opening.Add(e.Debit).Sub(e.Credit)
	}
	for _, e := range within {
		b := get(e.AccountCode)
		b.Debit = b.Debit.Add(e.Debit)
		b.Credit = b.Credit.Add(e.Credit)
	}
	out := make([]AccountBalance, 0, len(byCode))
	for _, b := range byCode {
		if b.empty() {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
