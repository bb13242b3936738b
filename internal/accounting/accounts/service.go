package accounts

import (
	"context"
	"strings"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Service is the account registry.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the account registered under code.
func (s *Service) Get(ctx context.Context, code string) (Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Account{}, shared.Invalid("account", "code required")
	}
	return s.repo.GetByCode(ctx, code)
}

// List returns accounts ordered by code, optionally restricted to one class.
func (s *Service) List(ctx context.Context, class *AccountClass) ([]Account, error) {
	if class != nil && !class.Valid() {
		return nil, shared.Invalid("class", "unknown account class")
	}
	return s.repo.List(ctx, class)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	return s.repo.Insert(ctx, in)
}

// Update renames or (de)activates an account. Class and normal side only
// change while no journal line references the account.
func (s *Service) Update(ctx context.Context, code string, in UpdateInput) (Account, error) {
	acc, err := s.Get(ctx, code)
	if err != nil {
		return Account{}, err
	}
	structural := (in.Class != nil && *in.Class != acc.Class) ||
		(in.NormalSide != nil && *in.NormalSide != acc.NormalSide)
	if structural {
		used, err := s.repo.Referenced(ctx, acc.ID)
		if err != nil {
			return Account{}, err
		}
		if used {
			return Account{}, shared.ErrAccountReferenced
		}
		if in.Class != nil {
			if !in.Class.Valid() {
				return Account{}, shared.Invalid("class", "unknown account class")
			}
			acc.Class = *in.Class
		}
		if in.NormalSide != nil {
			acc.NormalSide = *in.NormalSide
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Account{}, shared.Invalid("name", "required")
		}
		acc.Name = name
	}
	if in.IsActive != nil {
		acc.IsActive = *in.IsActive
	}
	return s.repo.Update(ctx, acc)
}
