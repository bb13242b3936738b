package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kasirku/ledger/internal/platform/calendar"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportSnapshot warms cached statements for one month.
	TaskReportSnapshot = "reports:snapshot"
	// TaskLedgerIntegrity re-checks that every posting balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskIdempotencyCleanup prunes expired opname submission claims.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReportSnapshotPayload names the day whose month should be warmed.
type ReportSnapshotPayload struct {
	Date string `json:"date"`
}

// LedgerIntegrityPayload bounds the check. Empty dates scan the whole ledger.
type LedgerIntegrityPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// IdempotencyCleanupPayload sets how old a claim must be before removal.
type IdempotencyCleanupPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewReportSnapshotTask constructs an Asynq task.
func NewReportSnapshotTask(payload ReportSnapshotPayload) (*asynq.Task, error) {
	return newTask(TaskReportSnapshot, payload)
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	return newTask(TaskLedgerIntegrity, payload)
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, payload)
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, data), nil
}

// NewTaskByName builds a task with its default payload. Snapshot tasks warm
// the month containing now.
func NewTaskByName(name string, now time.Time) (*asynq.Task, error) {
	switch name {
	case TaskReportSnapshot:
		return NewReportSnapshotTask(ReportSnapshotPayload{Date: calendar.FormatInstant(now)})
	case TaskLedgerIntegrity:
		return NewLedgerIntegrityTask(LedgerIntegrityPayload{})
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	default:
		return nil, fmt.Errorf("jobs: unsupported task %q", name)
	}
}
