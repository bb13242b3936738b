package counterparty

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/journals"
)

// signed returns the entry's effect on the outstanding balance of kind.
func signed(kind Kind, e journals.JournalEntry) decimal.Decimal {
	if kind == journals.KindSupplier {
		return e.Credit.Sub(e.Debit)
	}
	return e.Debit.Sub(e.Credit)
}

func ordered(entries []journals.JournalEntry) []journals.JournalEntry {
	out := make([]journals.JournalEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// Fold orders entries by (timestamp, sequence) and accumulates the running
// balance from zero. Receivables grow with debits, payables with credits.
func Fold(kind Kind, entries []journals.JournalEntry) []Row {
	rows := make([]Row, 0, len(entries))
	balance := decimal.Zero
	for _, e := range ordered(entries) {
		balance = balance.Add(signed(kind, e))
		rows = append(rows, Row{
			PostingID:     e.PostingID,
			Sequence:      e.Sequence,
			Timestamp:     e.Timestamp,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			Description:   e.Description,
			Debit:         e.Debit,
			Credit:        e.Credit,
			Balance:       balance,
			Actor:         e.Actor,
		})
	}
	return rows
}

// Summarize groups tagged entries on the control accounts into one row per
// (kind, name), ordered by kind then name. controls maps account code to kind.
func Summarize(entries []journals.JournalEntry, controls map[string]Kind) []SummaryRow {
	type key struct {
		kind Kind
		name string
	}
	acc := map[key]*SummaryRow{}
	postings := map[key]map[string]struct{}{}
	for _, e := range ordered(entries) {
		if e.Counterparty == "" {
			continue
		}
		kind, ok := controls[e.AccountCode]
		if !ok {
			continue
		}
		k := key{kind: kind, name: e.Counterparty}
		row, ok := acc[k]
		if !ok {
			row = &SummaryRow{Kind: kind, Name: e.Counterparty, Outstanding: decimal.Zero, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
			acc[k] = row
			postings[k] = map[string]struct{}{}
		}
		row.Outstanding = row.Outstanding.Add(signed(kind, e))
		row.TotalDebit = row.TotalDebit.Add(e.Debit)
		row.TotalCredit = row.TotalCredit.Add(e.Credit)
		row.LastActivity = e.Timestamp
		postings[k][e.PostingID.String()] = struct{}{}
	}
	out := make([]SummaryRow, 0, len(acc))
	for k, row := range acc {
		row.TransactionCount = len(postings[k])
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
