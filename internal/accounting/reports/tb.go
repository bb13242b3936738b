package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account line of the trial balance.
type TrialBalanceRow struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Opening       decimal.Decimal `json:"opening"`
	Debit         decimal.Decimal `json:"debit"`
	Credit        decimal.Decimal `json:"credit"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
}

// TrialBalanceGroup aggregates the accounts sharing a code prefix.
type TrialBalanceGroup struct {
	Key      string            `json:"key"`
	Accounts []TrialBalanceRow `json:"accounts"`
	Debit    decimal.Decimal   `json:"debit"`
	Credit   decimal.Decimal   `json:"credit"`
}

// TrialBalance lists period movements per account. IsBalanced is a
// diagnostic; an unbalanced result is still returned.
type TrialBalance struct {
	Range        DateRange           `json:"range"`
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalOpening decimal.Decimal     `json:"total_opening"`
	TotalDebit   decimal.Decimal     `json:"total_debit"`
	TotalCredit  decimal.Decimal     `json:"total_credit"`
	TotalClosing decimal.Decimal     `json:"total_closing"`
	IsBalanced   bool                `json:"is_balanced"`
}

// Rows flattens the groups in code order.
func (tb TrialBalance) Rows() []TrialBalanceRow {
	var out []TrialBalanceRow
	for _, g := range tb.Groups {
		out = append(out, g.Accounts...)
	}
	return out
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range balances {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Debit: decimal.Zero, Credit: decimal.Zero}
			groups[key] = grp
			keys = append(keys, key)
		}
		grp.Accounts = append(grp.Accounts, TrialBalanceRow{
			Code:          acc.Code,
			Name:          acc.Name,
			Opening:       acc.Opening,
			Debit:         acc.Debit,
			Credit:        acc.Credit,
			EndingBalance: acc.Ending(),
		})
		grp.Debit = grp.Debit.Add(acc.Debit)
		grp.Credit = grp.Credit.Add(acc.Credit)
	}

	sort.Strings(keys)
	result := TrialBalance{TotalOpening: decimal.Zero, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero, TotalClosing: decimal.Zero}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
	}
	for _, acc := range balances {
		result.TotalOpening = result.TotalOpening.Add(acc.Opening)
		result.TotalClosing = result.TotalClosing.Add(acc.Closing())
	}
	result.IsBalanced = result.TotalDebit.Equal(result.TotalCredit)
	return result
}
