package opname

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kasirku/ledger/internal/accounting/journals"
	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/calendar"
	internalShared "github.com/kasirku/ledger/internal/shared"
)

const idempotencyModule = "opname.submission"

// ItemCatalog supplies system quantity and reference price per item.
type ItemCatalog interface {
	Items(ctx context.Context, ids []string) (map[string]Item, error)
}

// Claimer reserves idempotency keys.
type Claimer interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// VariancePoster books a confirmed variance in the ledger.
type VariancePoster interface {
	PostVariance(ctx context.Context, result Result, actor, referenceID string) (journals.Posting, error)
}

// ServiceConfig toggles submission policy.
type ServiceConfig struct {
	// OnePerActorPerDay rejects repeat counts of an item by the same actor
	// on the same calendar day. Off by default: every count is pooled.
	OnePerActorPerDay bool
}

type Service struct {
	repo    Repository
	catalog ItemCatalog
	claims  Claimer
	poster  VariancePoster
	cfg     ServiceConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, catalog ItemCatalog, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, catalog: catalog, cfg: cfg, logger: logger, now: time.Now}
}

// WithClaimer installs the idempotency store used by OnePerActorPerDay.
func (s *Service) WithClaimer(c Claimer) { s.claims = c }

func (s *Service) WithPoster(p VariancePoster) { s.poster = p }

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SubmitCount appends a physical count to the item's pool.
func (s *Service) SubmitCount(ctx context.Context, in SubmitInput) (Submission, error) {
	if err := in.Validate(); err != nil {
		return Submission{}, err
	}
	items, err := s.catalog.Items(ctx, []string{in.ItemID})
	if err != nil {
		return Submission{}, err
	}
	if _, ok := items[in.ItemID]; !ok {
		return Submission{}, shared.NotFound("item", in.ItemID)
	}

	sub := Submission{
		ID:            uuid.New(),
		ItemID:        in.ItemID,
		Actor:         in.Actor,
		PhysicalCount: in.PhysicalCount,
		Note:          in.Note,
		SubmittedAt:   s.now(),
	}

	var claimKey string
	if s.cfg.OnePerActorPerDay {
		if s.claims == nil {
			return Submission{}, errors.New("opname: one-per-actor-per-day requires an idempotency store")
		}
		claimKey = internalShared.OpnameLockKey(sub.ItemID, calendar.FormatInstant(sub.SubmittedAt)) + ":" + sub.Actor
		if err := s.claims.CheckAndInsert(ctx, claimKey, idempotencyModule); err != nil {
			if errors.Is(err, internalShared.ErrIdempotencyConflict) {
				return Submission{}, ErrDuplicateSubmission
			}
			return Submission{}, shared.Persistence("claim submission", err)
		}
	}

	if err := s.repo.Insert(ctx, sub); err != nil {
		if claimKey != "" {
			if derr := s.claims.Delete(context.WithoutCancel(ctx), claimKey, idempotencyModule); derr != nil {
				s.logger.Warn("release opname claim", slog.String("key", claimKey), slog.Any("error", derr))
			}
		}
		return Submission{}, err
	}
	s.logger.Info("stock count submitted",
		slog.String("submission_id", sub.ID.String()),
		slog.String("item_id", sub.ItemID),
		slog.String("actor", sub.Actor),
		slog.String("physical_count", sub.PhysicalCount.String()))
	return sub, nil
}

// Recap reconciles every item with at least one submission in [from, to).
func (s *Service) Recap(ctx context.Context, from, to time.Time) ([]Result, error) {
	if !from.Before(to) {
		return nil, shared.Invalid("to", "must be after from")
	}
	subs, err := s.repo.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, subs)
}

// RecapItem reconciles a single item over [from, to).
func (s *Service) RecapItem(ctx context.Context, itemID string, from, to time.Time) (Result, error) {
	if !from.Before(to) {
		return Result{}, shared.Invalid("to", "must be after from")
	}
	subs, err := s.repo.List(ctx, Filter{From: from, To: to, ItemID: itemID})
	if err != nil {
		return Result{}, err
	}
	results, err := s.reconcile(ctx, subs)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, shared.NotFound("stock count", itemID)
	}
	return results[0], nil
}

// PostAdjustment books the item's variance over [from, to) as a cash
// adjustment. A matching count books nothing. The reference id is derived
// from item and window so the same adjustment cannot be posted twice.
func (s *Service) PostAdjustment(ctx context.Context, itemID string, from, to time.Time, actor string) (Result, *journals.Posting, error) {
	if s.poster == nil {
		return Result{}, nil, errors.New("opname: variance poster not configured")
	}
	result, err := s.RecapItem(ctx, itemID, from, to)
	if err != nil {
		return Result{}, nil, err
	}
	if result.CatalogMissing {
		return result, nil, shared.NotFound("item", itemID)
	}
	if result.Direction == DirectionMatch || result.MonetaryValue.IsZero() {
		return result, nil, nil
	}
	posting, err := s.poster.PostVariance(ctx, result, actor, AdjustmentReference(itemID, from, to))
	if err != nil {
		return result, nil, err
	}
	return result, &posting, nil
}

// AdjustmentReference names the ledger reference for an item's window.
func AdjustmentReference(itemID string, from, to time.Time) string {
	key := fmt.Sprintf("opname:%s:%s:%s", itemID, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (s *Service) reconcile(ctx context.Context, subs []Submission) ([]Result, error) {
	if len(subs) == 0 {
		return []Result{}, nil
	}
	seen := map[string]struct{}{}
	ids := make([]string, 0)
	for _, sub := range subs {
		if _, ok := seen[sub.ItemID]; !ok {
			seen[sub.ItemID] = struct{}{}
			ids = append(ids, sub.ItemID)
		}
	}
	items, err := s.catalog.Items(ctx, ids)
	if err != nil {
		return nil, err
	}
	return Reconcile(items, subs), nil
}
