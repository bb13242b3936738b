package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/accounts"
	"github.com/kasirku/ledger/internal/accounting/mappings"
	"github.com/kasirku/ledger/internal/accounting/shared"
	internalShared "github.com/kasirku/ledger/internal/shared"
)

// AccountLookup resolves account codes against the registry.
type AccountLookup interface {
	Get(ctx context.Context, code string) (accounts.Account, error)
}

// RoleResolver maps posting roles to account codes.
type RoleResolver interface {
	AccountCode(ctx context.Context, role mappings.Role) (string, error)
}

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// PeriodGuard blocks postings dated inside closed periods.
type PeriodGuard interface {
	EnsureOpenForPosting(ctx context.Context, ts time.Time) error
}

// Notifier receives a ledger changed event after every committed posting.
type Notifier interface {
	LedgerChanged(ctx context.Context, evt LedgerChangedEvent) error
}

// PostingObserver records posting outcomes, typically as metrics.
type PostingObserver interface {
	ObservePosting(refType string, err error)
}

type Service struct {
	repo     Repository
	accounts AccountLookup
	roles    RoleResolver
	audit    AuditPort
	guard    PeriodGuard
	notifier Notifier
	observer PostingObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, accounts AccountLookup, roles RoleResolver, audit AuditPort, guard PeriodGuard) *Service {
	return &Service{
		repo:     repo,
		accounts: accounts,
		roles:    roles,
		audit:    audit,
		guard:    guard,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) WithNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) WithObserver(o PostingObserver) {
	s.observer = o
}

func (s *Service) WithLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Post validates and appends a balanced posting in one transaction.
func (s *Service) Post(ctx context.Context, in PostingInput) (Posting, error) {
	return s.post(ctx, in, nil)
}

// Record dispatches a business transaction to its posting shape.
func (s *Service) Record(ctx context.Context, txn Transaction) (Posting, error) {
	if txn == nil {
		return Posting{}, shared.Invalid("transaction", "required")
	}
	in, check, err := s.plan(ctx, txn)
	if err != nil {
		s.observe(txn.referenceType(), err)
		return Posting{}, err
	}
	return s.post(ctx, in, check)
}

func (s *Service) RecordCashSale(ctx context.Context, amount decimal.Decimal, ts time.Time, actor string) (Posting, error) {
	return s.Record(ctx, CashSale{Amount: amount, Timestamp: ts, Actor: actor})
}

func (s *Service) RecordCreditSale(ctx context.Context, amount decimal.Decimal, customer string, ts time.Time, actor string) (Posting, error) {
	return s.Record(ctx, CreditSale{Amount: amount, Customer: customer, Timestamp: ts, Actor: actor})
}

func (s *Service) RecordPurchase(ctx context.Context, amount decimal.Decimal, supplier string, ts time.Time, actor string, paid bool) (Posting, error) {
	return s.Record(ctx, Purchase{Amount: amount, Supplier: supplier, Timestamp: ts, Actor: actor, Paid: paid})
}

func (s *Service) RecordCustomerPayment(ctx context.Context, customer string, amount decimal.Decimal, referenceNumber, actor, note string) (Posting, error) {
	return s.Record(ctx, CustomerPayment{Customer: customer, Amount: amount, ReferenceNumber: referenceNumber, Actor: actor, Note: note})
}

func (s *Service) RecordSupplierPayment(ctx context.Context, supplier string, amount decimal.Decimal, referenceNumber, actor, note string) (Posting, error) {
	return s.Record(ctx, SupplierPayment{Supplier: supplier, Amount: amount, ReferenceNumber: referenceNumber, Actor: actor, Note: note})
}

func (s *Service) RecordManualJournal(ctx context.Context, lines []PostingLineInput, actor, memo string) (Posting, error) {
	return s.Record(ctx, ManualJournal{Lines: lines, Actor: actor, Memo: memo})
}

func (s *Service) RecordStockVarianceAdjustment(ctx context.Context, itemID string, monetaryValue decimal.Decimal, direction VarianceDirection, actor string) (Posting, error) {
	return s.Record(ctx, StockVarianceAdjustment{ItemID: itemID, MonetaryValue: monetaryValue, Direction: direction, Actor: actor})
}

// ReverseJournal appends the mirror image of an existing posting. A posting
// is reversed at most once and reversals themselves cannot be reversed.
func (s *Service) ReverseJournal(ctx context.Context, input ReverseInput) (Posting, error) {
	if input.PostingID == uuid.Nil {
		return Posting{}, shared.Invalid("posting_id", "required")
	}
	original, err := s.repo.GetPosting(ctx, input.PostingID)
	if err != nil {
		return Posting{}, err
	}
	if original.ReferenceType == RefReversal {
		return Posting{}, shared.Invalid("posting_id", "reversal postings cannot be reversed")
	}
	memo := input.Memo
	if memo == "" {
		memo = fmt.Sprintf("Pembalikan posting #%d", original.Number)
	}
	id := original.ID
	in := PostingInput{
		ReferenceType:  RefReversal,
		ReferenceID:    original.ID.String(),
		Timestamp:      s.stamp(input.Timestamp),
		Actor:          input.Actor,
		Memo:           memo,
		Lines:          reverseLines(original.Entries, memo),
		AllowMemoLines: true,
		SourceKey:      original.ID.String(),
		ReversalOf:     &id,
	}
	return s.post(ctx, in, nil)
}

func (s *Service) GetPosting(ctx context.Context, id uuid.UUID) (Posting, error) {
	return s.repo.GetPosting(ctx, id)
}

func (s *Service) ListPostings(ctx context.Context, filter PostingFilter) ([]Posting, error) {
	return s.repo.ListPostings(ctx, filter)
}

// ListEntries returns entries ordered by (timestamp, sequence).
func (s *Service) ListEntries(ctx context.Context, filter EntryFilter) ([]JournalEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// Watermark identifies the committed ledger state. Derived views keyed by it
// can never outlive a posting.
func (s *Service) Watermark(ctx context.Context) (int64, error) {
	return s.repo.Watermark(ctx)
}

func (s *Service) post(ctx context.Context, in PostingInput, check *balanceCheck) (Posting, error) {
	posting, err := s.append(ctx, in, check)
	s.observe(in.ReferenceType, err)
	if err != nil {
		return Posting{}, err
	}
	s.afterCommit(ctx, posting)
	return posting, nil
}

func (s *Service) append(ctx context.Context, in PostingInput, check *balanceCheck) (Posting, error) {
	if err := in.Validate(); err != nil {
		return Posting{}, err
	}
	lines, err := s.resolve(ctx, in.Lines)
	if err != nil {
		return Posting{}, err
	}
	var posting Posting
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if s.guard != nil {
			if err := s.guard.EnsureOpenForPosting(ctx, in.Timestamp); err != nil {
				return err
			}
		}
		if check != nil {
			if err := s.checkOutstanding(ctx, tx, *check); err != nil {
				return err
			}
		}
		inserted, err := tx.InsertPosting(ctx, uuid.New(), in)
		if err != nil {
			return err
		}
		if in.SourceKey != "" {
			if err := tx.LinkSource(ctx, string(in.ReferenceType), in.SourceKey, inserted.ID); err != nil {
				if errors.Is(err, shared.ErrSourceConflict) {
					if in.ReferenceType == RefReversal {
						return shared.ErrAlreadyReversed
					}
					return fmt.Errorf("%w: %s %s", shared.ErrDuplicateReference, in.ReferenceType, in.SourceKey)
				}
				return err
			}
		}
		entries, err := tx.InsertEntries(ctx, inserted, lines)
		if err != nil {
			return err
		}
		inserted.Entries = entries
		posting = inserted
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return Posting{}, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return Posting{}, err
	}
	return posting, nil
}

// checkOutstanding must run inside the transaction that appends the payment.
func (s *Service) checkOutstanding(ctx context.Context, tx TxRepository, check balanceCheck) error {
	if err := tx.LockCounterparty(ctx, check.kind, check.name); err != nil {
		return err
	}
	debit, credit, err := tx.CounterpartyTotals(ctx, check.controlCode, check.name)
	if err != nil {
		return err
	}
	outstanding := debit.Sub(credit)
	if check.kind == KindSupplier {
		outstanding = credit.Sub(debit)
	}
	if !outstanding.IsPositive() {
		return fmt.Errorf("%w: %s", shared.ErrNoOutstandingBalance, check.name)
	}
	if check.amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: %s outstanding %s", shared.ErrAmountExceedsBalance, check.name, shared.FormatRupiah(outstanding))
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, lines []PostingLineInput) ([]ResolvedLine, error) {
	out := make([]ResolvedLine, 0, len(lines))
	cache := make(map[string]accounts.Account, len(lines))
	for idx, line := range lines {
		acc, ok := cache[line.AccountCode]
		if !ok {
			var err error
			acc, err = s.accounts.Get(ctx, line.AccountCode)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, shared.Invalid(fmt.Sprintf("lines[%d].account", idx), "unknown account "+line.AccountCode)
				}
				return nil, err
			}
			cache[line.AccountCode] = acc
		}
		if !acc.IsActive {
			return nil, shared.Invalid(fmt.Sprintf("lines[%d].account", idx), "inactive account "+line.AccountCode)
		}
		out = append(out, ResolvedLine{PostingLineInput: line, AccountID: acc.ID})
	}
	return out, nil
}

func (s *Service) afterCommit(ctx context.Context, posting Posting) {
	s.logger.Info("posting appended",
		slog.String("posting_id", posting.ID.String()),
		slog.Int64("number", posting.Number),
		slog.String("reference_type", string(posting.ReferenceType)),
		slog.String("actor", posting.Actor))
	if s.notifier != nil {
		if err := s.notifier.LedgerChanged(ctx, changedEvent(posting)); err != nil {
			s.logger.Warn("ledger changed notification", slog.String("posting_id", posting.ID.String()), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		debit, _ := posting.Totals()
		action := internalShared.ActionPostingAppended
		meta := map[string]any{
			"number":         posting.Number,
			"reference_type": string(posting.ReferenceType),
			"reference_id":   posting.ReferenceID,
			"amount":         debit.StringFixed(2),
		}
		if posting.ReversalOf != nil {
			action = internalShared.ActionPostingReversed
			meta["reversal_of"] = posting.ReversalOf.String()
		}
		err := s.audit.Record(ctx, internalShared.AuditLog{
			Actor:    posting.Actor,
			Action:   action,
			Entity:   "posting",
			EntityID: posting.ID.String(),
			Meta:     meta,
			At:       s.now(),
		})
		if err != nil {
			s.logger.Warn("audit posting", slog.String("posting_id", posting.ID.String()), slog.Any("error", err))
		}
	}
}

func (s *Service) observe(refType ReferenceType, err error) {
	if s.observer != nil {
		s.observer.ObservePosting(string(refType), err)
	}
}

func changedEvent(p Posting) LedgerChangedEvent {
	codes := map[string]struct{}{}
	parties := map[string]struct{}{}
	for _, e := range p.Entries {
		codes[e.AccountCode] = struct{}{}
		if e.Counterparty != "" {
			parties[e.Counterparty] = struct{}{}
		}
	}
	return LedgerChangedEvent{
		PostingID:      p.ID,
		Number:         p.Number,
		ReferenceType:  p.ReferenceType,
		Timestamp:      p.Timestamp,
		AccountCodes:   sortedKeys(codes),
		Counterparties: sortedKeys(parties),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func reverseLines(entries []JournalEntry, memo string) []PostingLineInput {
	out := make([]PostingLineInput, 0, len(entries))
	for _, e := range entries {
		out = append(out, PostingLineInput{
			AccountCode:  e.AccountCode,
			Debit:        e.Credit,
			Credit:       e.Debit,
			Description:  memo,
			Counterparty: e.Counterparty,
		})
	}
	return out
}
