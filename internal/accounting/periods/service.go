package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	return s.repo.Insert(ctx, in)
}

// Close marks the period CLOSED; later postings dated inside it are rejected.
func (s *Service) Close(ctx context.Context, id int64) (Period, error) {
	return s.repo.UpdateStatus(ctx, id, PeriodStatusClosed)
}

func (s *Service) Reopen(ctx context.Context, id int64) (Period, error) {
	return s.repo.UpdateStatus(ctx, id, PeriodStatusOpen)
}

// EnsureOpenForPosting rejects dates inside a closed period. Dates outside
// any configured period are accepted.
func (s *Service) EnsureOpenForPosting(ctx context.Context, ts time.Time) error {
	p, err := s.repo.FindByDate(ctx, ts)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if p.Status == PeriodStatusClosed {
		return fmt.Errorf("%w: %s", shared.ErrPeriodClosed, p.Name)
	}
	return nil
}
