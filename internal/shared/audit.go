package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions written by the ledger.
const (
	ActionPostingAppended = "posting.appended"
	ActionPostingReversed = "posting.reversed"
)

// AuditLog is one row of audit_logs. Postings are the ledger's own record;
// the audit trail adds who triggered them and a short summary.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger appends to audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record inserts entry. A zero At uses the database clock.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit: logger not initialised")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !entry.At.IsZero() {
		at = &entry.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, entry.Actor, entry.Action, entry.Entity, entry.EntityID, payload, at)
	return err
}

func (entry AuditLog) validate() error {
	var errs []error
	if entry.Actor == "" {
		errs = append(errs, errors.New("audit: actor required"))
	}
	if entry.Action == "" {
		errs = append(errs, errors.New("audit: action required"))
	}
	if entry.Entity == "" || entry.EntityID == "" {
		errs = append(errs, errors.New("audit: entity and entity id required"))
	}
	return errors.Join(errs...)
}
