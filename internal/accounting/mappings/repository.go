package mappings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

type Repository interface {
	Get(ctx context.Context, role Role) (AccountMapping, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves the account mapping stored for role.
func (r *repository) Get(ctx context.Context, role Role) (AccountMapping, error) {
	if role == "" {
		return AccountMapping{}, errors.New("accounting: role required")
	}
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT role, account_code, created_at, updated_at FROM account_mappings WHERE role=$1`, role).
		Scan(&mapping.Role, &mapping.AccountCode, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, shared.Persistence("get account mapping", err)
	}
	return mapping, nil
}
