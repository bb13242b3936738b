package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Repository persists the chart of accounts.
type Repository interface {
	List(ctx context.Context, class *AccountClass) ([]Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	Insert(ctx context.Context, in CreateInput) (Account, error)
	Update(ctx context.Context, acc Account) (Account, error)
	Referenced(ctx context.Context, accountID int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns the Postgres-backed account repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, class, normal_side, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Class, &a.NormalSide, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, class *AccountClass) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	args := []any{}
	if class != nil {
		query += ` WHERE class=$1`
		args = append(args, *class)
	}
	query += ` ORDER BY code`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Persistence("list accounts", err)
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, shared.Persistence("scan account", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list accounts", err)
	}
	return accounts, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.NotFound("account", code)
		}
		return Account{}, shared.Persistence("get account", err)
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, class, normal_side, is_active)
VALUES ($1,$2,$3,$4,TRUE) RETURNING `+accountColumns, in.Code, in.Name, in.Class, in.NormalSide))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, shared.Persistence("insert account", err)
	}
	return a, nil
}

func (r *repository) Update(ctx context.Context, acc Account) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `UPDATE accounts SET name=$2, class=$3, normal_side=$4, is_active=$5, updated_at=NOW()
WHERE id=$1 RETURNING `+accountColumns, acc.ID, acc.Name, acc.Class, acc.NormalSide, acc.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.NotFound("account", acc.Code)
		}
		return Account{}, shared.Persistence("update account", err)
	}
	return a, nil
}

func (r *repository) Referenced(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_id=$1)`, accountID).Scan(&exists)
	if err != nil {
		return false, shared.Persistence("account referenced", err)
	}
	return exists, nil
}
