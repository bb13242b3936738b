package mappings

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Resolver answers role lookups from the store, falling back to Defaults.
type Resolver struct {
	repo     Repository
	defaults map[Role]string
}

// NewResolver builds a Resolver. A nil repo resolves from defaults only.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, defaults: Defaults()}
}

// AccountCode returns the account code bound to role.
func (r *Resolver) AccountCode(ctx context.Context, role Role) (string, error) {
	if r.repo != nil {
		m, err := r.repo.Get(ctx, role)
		switch {
		case err == nil:
			return m.AccountCode, nil
		case !errors.Is(err, shared.ErrMappingNotFound):
			return "", err
		}
	}
	if code, ok := r.defaults[role]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %s", shared.ErrMappingNotFound, role)
}
