package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/db"
	internalShared "github.com/kasirku/ledger/internal/shared"
)

// Repository is the append-only ledger store.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPosting(ctx context.Context, id uuid.UUID) (Posting, error)
	ListPostings(ctx context.Context, filter PostingFilter) ([]Posting, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]JournalEntry, error)
	// Watermark counts committed postings. Postings are never updated or
	// deleted, so the count moves on every commit and only then.
	Watermark(ctx context.Context) (int64, error)
}

// TxRepository exposes methods available within a transaction.
type TxRepository interface {
	// LockCounterparty serializes writers on one counterparty until commit.
	LockCounterparty(ctx context.Context, kind CounterpartyKind, name string) error
	CounterpartyTotals(ctx context.Context, accountCode, name string) (debit, credit decimal.Decimal, err error)
	InsertPosting(ctx context.Context, id uuid.UUID, in PostingInput) (Posting, error)
	InsertEntries(ctx context.Context, posting Posting, lines []ResolvedLine) ([]JournalEntry, error)
	LinkSource(ctx context.Context, module, key string, postingID uuid.UUID) error
}

type repository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRepository returns the Postgres ledger store. A positive lockTimeout
// bounds how long a payment waits for a busy counterparty.
func NewRepository(pool *pgxpool.Pool, lockTimeout time.Duration) Repository {
	return &repository{db: pool, lockTimeout: lockTimeout}
}

// WithTx runs fn in a read-committed transaction so statements issued after
// an advisory lock see rows committed while waiting for it.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.db, db.TxOptions{IsoLevel: pgx.ReadCommitted, LockTimeout: r.lockTimeout}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
	var txErr *db.TxError
	if errors.As(err, &txErr) {
		return mapTxError(txErr.Op, txErr.Err)
	}
	return err
}

func mapTxError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return shared.Persistence(op, err)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockCounterparty(ctx context.Context, kind CounterpartyKind, name string) error {
	key := internalShared.CounterpartyLockKey(string(kind), name)
	if _, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return mapTxError("lock counterparty", err)
	}
	return nil
}

func (r *txRepository) CounterpartyTotals(ctx context.Context, accountCode, name string) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT COALESCE(SUM(jl.debit),0), COALESCE(SUM(jl.credit),0)
FROM journal_lines jl JOIN accounts a ON a.id = jl.account_id
WHERE a.code=$1 AND jl.counterparty=$2`, accountCode, name).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, mapTxError("counterparty totals", err)
	}
	return debit, credit, nil
}

func (r *txRepository) InsertPosting(ctx context.Context, id uuid.UUID, in PostingInput) (Posting, error) {
	p := Posting{
		ID:            id,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Timestamp:     in.Timestamp,
		Actor:         in.Actor,
		Memo:          in.Memo,
		ReversalOf:    in.ReversalOf,
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO postings (id, reference_type, reference_id, ts, actor, memo, reversal_of)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING number, created_at`,
		p.ID, p.ReferenceType, p.ReferenceID, p.Timestamp, p.Actor, p.Memo, p.ReversalOf).
		Scan(&p.Number, &p.CreatedAt)
	if err != nil {
		return Posting{}, mapTxError("insert posting", err)
	}
	return p, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, posting Posting, lines []ResolvedLine) ([]JournalEntry, error) {
	entries := make([]JournalEntry, 0, len(lines))
	for _, line := range lines {
		e := JournalEntry{
			PostingID:     posting.ID,
			Timestamp:     posting.Timestamp,
			AccountID:     line.AccountID,
			AccountCode:   line.AccountCode,
			Debit:         line.Debit,
			Credit:        line.Credit,
			Description:   line.Description,
			ReferenceType: posting.ReferenceType,
			ReferenceID:   posting.ReferenceID,
			Counterparty:  line.Counterparty,
			Actor:         posting.Actor,
		}
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (posting_id, ts, account_id, debit, credit, description, reference_type, reference_id, counterparty, actor)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10) RETURNING id, created_at`,
			e.PostingID, e.Timestamp, e.AccountID, e.Debit, e.Credit, e.Description, e.ReferenceType, e.ReferenceID, e.Counterparty, e.Actor).
			Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return nil, mapTxError("insert journal line", err)
		}
		e.Sequence = e.ID
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *txRepository) LinkSource(ctx context.Context, module, key string, postingID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, source_key, posting_id) VALUES ($1,$2,$3)`, module, key, postingID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_source_links" {
			return shared.ErrSourceConflict
		}
		return mapTxError("link source", err)
	}
	return nil
}

const entryColumns = `jl.id, jl.posting_id, jl.ts, jl.account_id, a.code, jl.debit, jl.credit, jl.description,
jl.reference_type, jl.reference_id, COALESCE(jl.counterparty,''), jl.actor, jl.created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.PostingID, &e.Timestamp, &e.AccountID, &e.AccountCode, &e.Debit, &e.Credit, &e.Description,
		&e.ReferenceType, &e.ReferenceID, &e.Counterparty, &e.Actor, &e.CreatedAt)
	e.Sequence = e.ID
	return e, err
}

func (r *repository) ListEntries(ctx context.Context, filter EntryFilter) ([]JournalEntry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.From != nil {
		add("jl.ts >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("jl.ts < $%d", *filter.To)
	}
	if filter.Counterparty != "" {
		add("jl.counterparty = $%d", filter.Counterparty)
	}
	if filter.ReferenceType != "" {
		add("jl.reference_type = $%d", filter.ReferenceType)
	}
	if len(filter.AccountCodes) > 0 {
		add("a.code = ANY($%d)", filter.AccountCodes)
	}
	query := `SELECT ` + entryColumns + ` FROM journal_lines jl JOIN accounts a ON a.id = jl.account_id`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY jl.ts, jl.id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Persistence("list entries", err)
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, shared.Persistence("scan entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list entries", err)
	}
	return entries, nil
}

const postingColumns = `id, number, reference_type, reference_id, ts, actor, memo, reversal_of, created_at`

func scanPosting(row pgx.Row) (Posting, error) {
	var p Posting
	err := row.Scan(&p.ID, &p.Number, &p.ReferenceType, &p.ReferenceID, &p.Timestamp, &p.Actor, &p.Memo, &p.ReversalOf, &p.CreatedAt)
	return p, err
}

func (r *repository) GetPosting(ctx context.Context, id uuid.UUID) (Posting, error) {
	p, err := scanPosting(r.db.QueryRow(ctx, `SELECT `+postingColumns+` FROM postings WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Posting{}, shared.NotFound("posting", id.String())
		}
		return Posting{}, shared.Persistence("get posting", err)
	}
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_lines jl JOIN accounts a ON a.id = jl.account_id
WHERE jl.posting_id=$1 ORDER BY jl.id`, id)
	if err != nil {
		return Posting{}, shared.Persistence("get posting lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Posting{}, shared.Persistence("scan entry", err)
		}
		p.Entries = append(p.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Posting{}, shared.Persistence("get posting lines", err)
	}
	return p, nil
}

func (r *repository) Watermark(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM postings`).Scan(&n); err != nil {
		return 0, shared.Persistence("ledger watermark", err)
	}
	return n, nil
}

func (r *repository) ListPostings(ctx context.Context, filter PostingFilter) ([]Posting, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.From != nil {
		add("ts >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("ts < $%d", *filter.To)
	}
	if filter.ReferenceType != "" {
		add("reference_type = $%d", filter.ReferenceType)
	}
	query := `SELECT ` + postingColumns + ` FROM postings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY number DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Persistence("list postings", err)
	}
	defer rows.Close()
	var out []Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, shared.Persistence("scan posting", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list postings", err)
	}
	return out, nil
}
