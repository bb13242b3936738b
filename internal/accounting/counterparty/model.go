package counterparty

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/journals"
)

// Kind is the counterparty side: customers owe us, we owe suppliers.
type Kind = journals.CounterpartyKind

// Row is one ledger line with the balance folded up to and including it.
type Row struct {
	PostingID     uuid.UUID              `json:"posting_id"`
	Sequence      int64                  `json:"sequence"`
	Timestamp     time.Time              `json:"timestamp"`
	ReferenceType journals.ReferenceType `json:"reference_type"`
	ReferenceID   string                 `json:"reference_id"`
	Description   string                 `json:"description"`
	Debit         decimal.Decimal        `json:"debit"`
	Credit        decimal.Decimal        `json:"credit"`
	Balance       decimal.Decimal        `json:"balance"`
	Actor         string                 `json:"actor"`
}

// SummaryRow aggregates one counterparty over its full history.
type SummaryRow struct {
	Kind             Kind            `json:"kind"`
	Name             string          `json:"name"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	TotalDebit       decimal.Decimal `json:"total_debit"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	TransactionCount int             `json:"transaction_count"`
	LastActivity     time.Time       `json:"last_activity"`
}

// ParseKind accepts customer/supplier in any case.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToUpper(strings.TrimSpace(raw))) {
	case journals.KindCustomer:
		return journals.KindCustomer, true
	case journals.KindSupplier:
		return journals.KindSupplier, true
	}
	return "", false
}

