package journals

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/mappings"
	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Transaction is the closed set of business events the ledger accepts.
type Transaction interface {
	referenceType() ReferenceType
}

// CashSale records a till sale paid in cash.
type CashSale struct {
	Amount    decimal.Decimal
	Timestamp time.Time
	Actor     string
	SaleID    string
	Note      string
}

// CreditSale records a sale booked to a customer's receivable.
type CreditSale struct {
	Amount    decimal.Decimal
	Customer  string
	Timestamp time.Time
	Actor     string
	SaleID    string
	Note      string
}

// Purchase records stock or expenses bought from a supplier. Paid purchases
// settle in cash, the rest are booked to the supplier's payable.
type Purchase struct {
	Amount     decimal.Decimal
	Supplier   string
	Timestamp  time.Time
	Actor      string
	Paid       bool
	Expense    bool
	PurchaseID string
	Note       string
}

// CustomerPayment settles part or all of a customer's receivable.
type CustomerPayment struct {
	Customer        string
	Amount          decimal.Decimal
	ReferenceNumber string
	Timestamp       time.Time
	Actor           string
	Note            string
}

// SupplierPayment settles part or all of a supplier's payable.
type SupplierPayment struct {
	Supplier        string
	Amount          decimal.Decimal
	ReferenceNumber string
	Timestamp       time.Time
	Actor           string
	Note            string
}

// ManualJournal is an arbitrary balanced entry keyed in by an administrator.
type ManualJournal struct {
	Lines       []PostingLineInput
	Timestamp   time.Time
	Actor       string
	Memo        string
	ReferenceID string
}

// VarianceDirection says whether a stock count found more or less than the system.
type VarianceDirection string

const (
	VarianceGain VarianceDirection = "GAIN"
	VarianceLoss VarianceDirection = "LOSS"
)

// StockVarianceAdjustment books a confirmed stock opname variance against cash.
type StockVarianceAdjustment struct {
	ItemID        string
	ItemName      string
	MonetaryValue decimal.Decimal
	Direction     VarianceDirection
	Timestamp     time.Time
	Actor         string
	ReferenceID   string
}

func (CashSale) referenceType() ReferenceType                { return RefCashSale }
func (CreditSale) referenceType() ReferenceType              { return RefCreditSale }
func (Purchase) referenceType() ReferenceType                { return RefPurchase }
func (CustomerPayment) referenceType() ReferenceType         { return RefCustomerPayment }
func (SupplierPayment) referenceType() ReferenceType         { return RefSupplierPayment }
func (ManualJournal) referenceType() ReferenceType           { return RefManualJournal }
func (StockVarianceAdjustment) referenceType() ReferenceType { return RefStockVariance }

// balanceCheck bounds a payment by the counterparty's outstanding balance.
type balanceCheck struct {
	kind        CounterpartyKind
	name        string
	controlCode string
	amount      decimal.Decimal
}

// plan turns a transaction into its fixed debit/credit shape.
func (s *Service) plan(ctx context.Context, txn Transaction) (PostingInput, *balanceCheck, error) {
	switch t := txn.(type) {
	case CashSale:
		if err := positive("amount", t.Amount); err != nil {
			return PostingInput{}, nil, err
		}
		codes, err := s.codes(ctx, mappings.RoleCash, mappings.RoleRevenue)
		if err != nil {
			return PostingInput{}, nil, err
		}
		memo := noteOr(t.Note, "Penjualan tunai "+shared.FormatRupiah(t.Amount))
		return PostingInput{
			ReferenceType: RefCashSale,
			ReferenceID:   idOrNew(t.SaleID),
			Timestamp:     s.stamp(t.Timestamp),
			Actor:         t.Actor,
			Memo:          memo,
			SourceKey:     strings.TrimSpace(t.SaleID),
			Lines: []PostingLineInput{
				{AccountCode: codes[0], Debit: t.Amount, Description: memo},
				{AccountCode: codes[1], Credit: t.Amount, Description: memo},
			},
		}, nil, nil

	case CreditSale:
		if err := positive("amount", t.Amount); err != nil {
			return PostingInput{}, nil, err
		}
		customer, err := counterpartyName("customer", t.Customer)
		if err != nil {
			return PostingInput{}, nil, err
		}
		codes, err := s.codes(ctx, mappings.RoleReceivable, mappings.RoleRevenue)
		if err != nil {
			return PostingInput{}, nil, err
		}
		memo := noteOr(t.Note, fmt.Sprintf("Penjualan kredit %s %s", customer, shared.FormatRupiah(t.Amount)))
		return PostingInput{
			ReferenceType: RefCreditSale,
			ReferenceID:   idOrNew(t.SaleID),
			Timestamp:     s.stamp(t.Timestamp),
			Actor:         t.Actor,
			Memo:          memo,
			SourceKey:     strings.TrimSpace(t.SaleID),
			Lines: []PostingLineInput{
				{AccountCode: codes[0], Debit: t.Amount, Description: memo, Counterparty: customer},
				{AccountCode: codes[1], Credit: t.Amount, Description: memo},
			},
		}, nil, nil

	case Purchase:
		if err := positive("amount", t.Amount); err != nil {
			return PostingInput{}, nil, err
		}
		supplier := strings.TrimSpace(t.Supplier)
		debitRole := mappings.RoleInventory
		if t.Expense {
			debitRole = mappings.RoleExpense
		}
		creditRole := mappings.RoleCash
		if !t.Paid {
			var err error
			if supplier, err = counterpartyName("supplier", t.Supplier); err != nil {
				return PostingInput{}, nil, err
			}
			creditRole = mappings.RolePayable
		}
		codes, err := s.codes(ctx, debitRole, creditRole)
		if err != nil {
			return PostingInput{}, nil, err
		}
		memo := noteOr(t.Note, fmt.Sprintf("Pembelian %s %s", supplier, shared.FormatRupiah(t.Amount)))
		credit := PostingLineInput{AccountCode: codes[1], Credit: t.Amount, Description: memo}
		if !t.Paid {
			credit.Counterparty = supplier
		}
		return PostingInput{
			ReferenceType: RefPurchase,
			ReferenceID:   idOrNew(t.PurchaseID),
			Timestamp:     s.stamp(t.Timestamp),
			Actor:         t.Actor,
			Memo:          memo,
			SourceKey:     strings.TrimSpace(t.PurchaseID),
			Lines: []PostingLineInput{
				{AccountCode: codes[0], Debit: t.Amount, Description: memo},
				credit,
			},
		}, nil, nil

	case CustomerPayment:
		return s.planPayment(ctx, KindCustomer, t.Customer, t.Amount, t.ReferenceNumber, t.Timestamp, t.Actor, t.Note)

	case SupplierPayment:
		return s.planPayment(ctx, KindSupplier, t.Supplier, t.Amount, t.ReferenceNumber, t.Timestamp, t.Actor, t.Note)

	case ManualJournal:
		if len(t.Lines) < 2 {
			return PostingInput{}, nil, shared.ErrTooFewLines
		}
		lines := make([]PostingLineInput, len(t.Lines))
		copy(lines, t.Lines)
		return PostingInput{
			ReferenceType: RefManualJournal,
			ReferenceID:   idOrNew(t.ReferenceID),
			Timestamp:     s.stamp(t.Timestamp),
			Actor:         t.Actor,
			Memo:          t.Memo,
			Lines:         lines,
		}, nil, nil

	case StockVarianceAdjustment:
		if err := positive("monetary_value", t.MonetaryValue); err != nil {
			return PostingInput{}, nil, err
		}
		if strings.TrimSpace(t.ItemID) == "" {
			return PostingInput{}, nil, shared.Invalid("item", "required")
		}
		codes, err := s.codes(ctx, mappings.RoleCash, mappings.RoleStockVariance)
		if err != nil {
			return PostingInput{}, nil, err
		}
		cash, variance := codes[0], codes[1]
		label := t.ItemName
		if label == "" {
			label = t.ItemID
		}
		var lines []PostingLineInput
		var memo string
		switch t.Direction {
		case VarianceGain:
			memo = fmt.Sprintf("Selisih lebih stok opname %s", label)
			lines = []PostingLineInput{
				{AccountCode: cash, Debit: t.MonetaryValue, Description: memo},
				{AccountCode: variance, Credit: t.MonetaryValue, Description: memo},
			}
		case VarianceLoss:
			memo = fmt.Sprintf("Selisih kurang stok opname %s", label)
			lines = []PostingLineInput{
				{AccountCode: variance, Debit: t.MonetaryValue, Description: memo},
				{AccountCode: cash, Credit: t.MonetaryValue, Description: memo},
			}
		default:
			return PostingInput{}, nil, shared.Invalid("direction", fmt.Sprintf("unknown variance direction %q", t.Direction))
		}
		return PostingInput{
			ReferenceType: RefStockVariance,
			ReferenceID:   idOrNew(t.ReferenceID),
			Timestamp:     s.stamp(t.Timestamp),
			Actor:         t.Actor,
			Memo:          memo,
			SourceKey:     strings.TrimSpace(t.ReferenceID),
			Lines:         lines,
		}, nil, nil

	default:
		return PostingInput{}, nil, shared.Invalid("transaction", fmt.Sprintf("unsupported transaction %T", txn))
	}
}

func (s *Service) planPayment(ctx context.Context, kind CounterpartyKind, name string, amount decimal.Decimal, ref string, ts time.Time, actor, note string) (PostingInput, *balanceCheck, error) {
	field := strings.ToLower(string(kind))
	name, err := counterpartyName(field, name)
	if err != nil {
		return PostingInput{}, nil, err
	}
	if err := positive("amount", amount); err != nil {
		return PostingInput{}, nil, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return PostingInput{}, nil, shared.Invalid("reference_number", "required")
	}
	controlRole, refType := mappings.RoleReceivable, RefCustomerPayment
	if kind == KindSupplier {
		controlRole, refType = mappings.RolePayable, RefSupplierPayment
	}
	codes, err := s.codes(ctx, mappings.RoleCash, controlRole)
	if err != nil {
		return PostingInput{}, nil, err
	}
	cash, control := codes[0], codes[1]
	var lines []PostingLineInput
	var memo string
	if kind == KindCustomer {
		memo = noteOr(note, fmt.Sprintf("Pelunasan piutang %s #%s", name, ref))
		lines = []PostingLineInput{
			{AccountCode: cash, Debit: amount, Description: memo},
			{AccountCode: control, Credit: amount, Description: memo, Counterparty: name},
		}
	} else {
		memo = noteOr(note, fmt.Sprintf("Pembayaran hutang %s #%s", name, ref))
		lines = []PostingLineInput{
			{AccountCode: control, Debit: amount, Description: memo, Counterparty: name},
			{AccountCode: cash, Credit: amount, Description: memo},
		}
	}
	in := PostingInput{
		ReferenceType: refType,
		ReferenceID:   ref,
		Timestamp:     s.stamp(ts),
		Actor:         actor,
		Memo:          memo,
		SourceKey:     paymentSourceKey(name, ref),
		Lines:         lines,
	}
	return in, &balanceCheck{kind: kind, name: name, controlCode: control, amount: amount}, nil
}

// paymentSourceKey length-prefixes the counterparty so that no choice of
// name and reference can produce another pair's key.
func paymentSourceKey(name, ref string) string {
	return strconv.Itoa(len(name)) + ":" + name + "#" + ref
}

func (s *Service) codes(ctx context.Context, roles ...mappings.Role) ([]string, error) {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		code, err := s.roles.AccountCode(ctx, role)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}

func (s *Service) stamp(ts time.Time) time.Time {
	if ts.IsZero() {
		return s.now()
	}
	return ts
}

func positive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return shared.Invalid(field, "must be greater than zero")
	}
	return nil
}

func counterpartyName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.Invalid(field, "required")
	}
	return name, nil
}

func noteOr(note, fallback string) string {
	if strings.TrimSpace(note) != "" {
		return strings.TrimSpace(note)
	}
	return fallback
}

func idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
