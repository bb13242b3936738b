package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// PostingLineInput describes a journal line for posting request.
type PostingLineInput struct {
	AccountCode  string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Description  string
	Counterparty string
}

// ResolvedLine is a validated line bound to its account id.
type ResolvedLine struct {
	PostingLineInput
	AccountID int64
}

// PostingInput groups fields required to append a posting.
type PostingInput struct {
	ReferenceType ReferenceType
	ReferenceID   string
	Timestamp     time.Time
	Actor         string
	Memo          string
	Lines         []PostingLineInput
	// AllowMemoLines admits lines with both sides zero.
	AllowMemoLines bool
	// SourceKey, when set, must be unique per reference type.
	SourceKey  string
	ReversalOf *uuid.UUID
}

// Validate ensures posting input meets minimum criteria. Amounts carry at
// most two decimal places so the balance check is exact.
func (in *PostingInput) Validate() error {
	if !in.ReferenceType.Valid() {
		return shared.Invalid("reference_type", fmt.Sprintf("unknown reference type %q", in.ReferenceType))
	}
	if in.Timestamp.IsZero() {
		return shared.Invalid("timestamp", "required")
	}
	if strings.TrimSpace(in.Actor) == "" {
		return shared.Invalid("actor", "required")
	}
	if len(in.Lines) == 0 {
		return shared.Invalid("lines", "at least one line required")
	}
	debit, credit := decimal.Zero, decimal.Zero
	for idx := range in.Lines {
		line := &in.Lines[idx]
		field := fmt.Sprintf("lines[%d]", idx)
		line.AccountCode = strings.TrimSpace(line.AccountCode)
		if line.AccountCode == "" {
			return shared.Invalid(field+".account", "required")
		}
		if !line.Debit.Equal(shared.Round2(line.Debit)) || !line.Credit.Equal(shared.Round2(line.Credit)) {
			return shared.Invalid(field, "more than two decimal places")
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return shared.Invalid(field, "negative amount")
		}
		if line.Debit.IsPositive() && line.Credit.IsPositive() {
			return shared.Invalid(field, "cannot be both debit and credit")
		}
		if line.Debit.IsZero() && line.Credit.IsZero() && !in.AllowMemoLines {
			return shared.Invalid(field, "amount required")
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s credit %s", shared.ErrUnbalanced, debit.StringFixed(2), credit.StringFixed(2))
	}
	if debit.IsZero() {
		return shared.Invalid("lines", "posting moves no money")
	}
	return nil
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	PostingID uuid.UUID
	Actor     string
	Memo      string
	Timestamp time.Time
}
