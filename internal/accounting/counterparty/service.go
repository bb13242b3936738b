package counterparty

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/mappings"
	"github.com/kasirku/ledger/internal/accounting/shared"
)

// EntrySource reads ledger lines in (timestamp, sequence) order.
type EntrySource interface {
	ListEntries(ctx context.Context, filter journals.EntryFilter) ([]journals.JournalEntry, error)
}

type RoleResolver interface {
	AccountCode(ctx context.Context, role mappings.Role) (string, error)
}

// Service derives counterparty views from the ledger. It keeps no state
// between calls.
type Service struct {
	entries EntrySource
	roles   RoleResolver
}

func NewService(entries EntrySource, roles RoleResolver) *Service {
	return &Service{entries: entries, roles: roles}
}

func (s *Service) controlCode(ctx context.Context, kind Kind) (string, error) {
	switch kind {
	case journals.KindCustomer:
		return s.roles.AccountCode(ctx, mappings.RoleReceivable)
	case journals.KindSupplier:
		return s.roles.AccountCode(ctx, mappings.RolePayable)
	}
	return "", shared.Invalid("kind", "must be CUSTOMER or SUPPLIER")
}

// LedgerFor returns the counterparty's control-account lines inside
// [from, to) with a running balance. The balance starts at zero at the
// window start; nothing before from is carried forward.
func (s *Service) LedgerFor(ctx context.Context, kind Kind, name string, from, to *time.Time) ([]Row, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.Invalid("name", "required")
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, shared.Invalid("to", "must be after from")
	}
	code, err := s.controlCode(ctx, kind)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListEntries(ctx, journals.EntryFilter{
		From:         from,
		To:           to,
		AccountCodes: []string{code},
		Counterparty: name,
	})
	if err != nil {
		return nil, err
	}
	return Fold(kind, entries), nil
}

// Outstanding is the counterparty's balance over its full history.
func (s *Service) Outstanding(ctx context.Context, kind Kind, name string) (decimal.Decimal, error) {
	rows, err := s.LedgerFor(ctx, kind, name, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return rows[len(rows)-1].Balance, nil
}

// Summary lists every counterparty with at least one tagged entry. A nil
// kind returns customers and suppliers.
func (s *Service) Summary(ctx context.Context, kind *Kind) ([]SummaryRow, error) {
	kinds := []Kind{journals.KindCustomer, journals.KindSupplier}
	if kind != nil {
		kinds = []Kind{*kind}
	}
	codes := make([]string, len(kinds))
	for i, k := range kinds {
		code, err := s.controlCode(ctx, k)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}

	results := make([][]journals.JournalEntry, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i := range kinds {
		g.Go(func() error {
			entries, err := s.entries.ListEntries(gctx, journals.EntryFilter{AccountCodes: []string{codes[i]}})
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	controls := make(map[string]Kind, len(kinds))
	var all []journals.JournalEntry
	for i, k := range kinds {
		controls[codes[i]] = k
		all = append(all, results[i]...)
	}
	return Summarize(all, controls), nil
}
