package opname

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
)

// Filter narrows submission reads to [From, To).
type Filter struct {
	From   time.Time
	To     time.Time
	ItemID string
}

// Repository stores submissions append-only.
type Repository interface {
	Insert(ctx context.Context, sub Submission) error
	List(ctx context.Context, filter Filter) ([]Submission, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, sub Submission) error {
	_, err := r.db.Exec(ctx, `INSERT INTO stock_count_submissions (id, item_id, actor, physical_count, note, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6)`, sub.ID, sub.ItemID, sub.Actor, sub.PhysicalCount, sub.Note, sub.SubmittedAt)
	if err != nil {
		return shared.Persistence("insert stock count", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Submission, error) {
	args := []any{filter.From, filter.To}
	query := `SELECT id, item_id, actor, physical_count, note, submitted_at
FROM stock_count_submissions WHERE submitted_at >= $1 AND submitted_at < $2`
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		query += fmt.Sprintf(" AND item_id = $%d", len(args))
	}
	query += " ORDER BY submitted_at, id"
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Persistence("list stock counts", err)
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.ItemID, &s.Actor, &s.PhysicalCount, &s.Note, &s.SubmittedAt); err != nil {
			return nil, shared.Persistence("scan stock count", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list stock counts", err)
	}
	return out, nil
}

// catalog reads stock_items, which the product catalog owns.
type catalog struct {
	db *pgxpool.Pool
}

func NewCatalog(db *pgxpool.Pool) ItemCatalog {
	return &catalog{db: db}
}

func (c *catalog) Items(ctx context.Context, ids []string) (map[string]Item, error) {
	out := make(map[string]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := c.db.Query(ctx, `SELECT id, name, system_quantity, reference_price FROM stock_items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, shared.Persistence("load stock items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			it         Item
			qty, price decimal.Decimal
		)
		if err := rows.Scan(&it.ID, &it.Name, &qty, &price); err != nil {
			return nil, shared.Persistence("scan stock item", err)
		}
		it.SystemQuantity, it.ReferencePrice = qty, price
		it.Name = strings.TrimSpace(it.Name)
		out[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("load stock items", err)
	}
	return out, nil
}
