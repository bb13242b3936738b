package periods

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/ledger/internal/accounting/shared"
	"github.com/kasirku/ledger/internal/platform/calendar"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Period, error)
	FindByDate(ctx context.Context, date time.Time) (Period, error)
	List(ctx context.Context) ([]Period, error)
	Insert(ctx context.Context, in CreateInput) (Period, error)
	UpdateStatus(ctx context.Context, id int64, status PeriodStatus) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, name, start_date, end_date, status, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.NotFound("period", strconv.FormatInt(id, 10))
		}
		return Period{}, shared.Persistence("get period", err)
	}
	return p, nil
}

// FindByDate returns the period covering the ledger day of the supplied instant.
func (r *repository) FindByDate(ctx context.Context, date time.Time) (Period, error) {
	day := calendar.FormatInstant(date)
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+`
FROM periods WHERE $1::date BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.NotFound("period", day)
		}
		return Period{}, shared.Persistence("find period", err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY start_date`)
	if err != nil {
		return nil, shared.Persistence("list periods", err)
	}
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, shared.Persistence("scan period", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Persistence("list periods", err)
	}
	return out, nil
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `INSERT INTO periods (name, start_date, end_date, status)
VALUES ($1,$2,$3,'OPEN') RETURNING `+periodColumns, in.Name, in.StartDate, in.EndDate))
	if err != nil {
		return Period{}, shared.Persistence("insert period", err)
	}
	return p, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status PeriodStatus) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `UPDATE periods
SET status=$2, closed_at=CASE WHEN $2='CLOSED' THEN NOW() ELSE NULL END, updated_at=NOW()
WHERE id=$1 RETURNING `+periodColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.NotFound("period", strconv.FormatInt(id, 10))
		}
		return Period{}, shared.Persistence("update period", err)
	}
	return p, nil
}
