package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceType tags the business event a posting originates from.
type ReferenceType string

const (
	RefCashSale        ReferenceType = "CASH_SALE"
	RefCreditSale      ReferenceType = "CREDIT_SALE"
	RefPurchase        ReferenceType = "PURCHASE"
	RefCustomerPayment ReferenceType = "CUSTOMER_PAYMENT"
	RefSupplierPayment ReferenceType = "SUPPLIER_PAYMENT"
	RefManualJournal   ReferenceType = "MANUAL_JOURNAL"
	RefStockVariance   ReferenceType = "STOCK_VARIANCE"
	RefReversal        ReferenceType = "REVERSAL"
)

// Valid reports whether t is a known reference type.
func (t ReferenceType) Valid() bool {
	switch t {
	case RefCashSale, RefCreditSale, RefPurchase, RefCustomerPayment, RefSupplierPayment,
		RefManualJournal, RefStockVariance, RefReversal:
		return true
	}
	return false
}

// CounterpartyKind separates customers (piutang) from suppliers (hutang).
type CounterpartyKind string

const (
	KindCustomer CounterpartyKind = "CUSTOMER"
	KindSupplier CounterpartyKind = "SUPPLIER"
)

// Posting is one balanced, atomically appended set of journal entries.
type Posting struct {
	ID            uuid.UUID
	Number        int64
	ReferenceType ReferenceType
	ReferenceID   string
	Timestamp     time.Time
	Actor         string
	Memo          string
	ReversalOf    *uuid.UUID
	CreatedAt     time.Time
	Entries       []JournalEntry
}

// Totals returns the debit and credit sums of the posting.
func (p Posting) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range p.Entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}

// JournalEntry is a single immutable ledger line. Sequence gives the total
// order among entries sharing a timestamp.
type JournalEntry struct {
	ID            int64
	PostingID     uuid.UUID
	Sequence      int64
	Timestamp     time.Time
	AccountID     int64
	AccountCode   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	Description   string
	ReferenceType ReferenceType
	ReferenceID   string
	Counterparty  string
	Actor         string
	CreatedAt     time.Time
}

// EntryFilter narrows ledger reads. From is inclusive, To exclusive.
type EntryFilter struct {
	From          *time.Time
	To            *time.Time
	AccountCodes  []string
	Counterparty  string
	ReferenceType ReferenceType
}

// Matches applies the filter to a single entry.
func (f EntryFilter) Matches(e JournalEntry) bool {
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.Timestamp.Before(*f.To) {
		return false
	}
	if f.Counterparty != "" && e.Counterparty != f.Counterparty {
		return false
	}
	if f.ReferenceType != "" && e.ReferenceType != f.ReferenceType {
		return false
	}
	if len(f.AccountCodes) > 0 {
		for _, code := range f.AccountCodes {
			if code == e.AccountCode {
				return true
			}
		}
		return false
	}
	return true
}

// PostingFilter narrows posting listings.
type PostingFilter struct {
	From          *time.Time
	To            *time.Time
	ReferenceType ReferenceType
	Limit         int
}

// LedgerChangedEvent is emitted after every committed posting.
type LedgerChangedEvent struct {
	PostingID      uuid.UUID
	Number         int64
	ReferenceType  ReferenceType
	Timestamp      time.Time
	AccountCodes   []string
	Counterparties []string
}
