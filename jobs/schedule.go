package jobs

import (
	"github.com/hibiken/asynq"
)

// DefaultCron schedules the nightly integrity scan and the claim cleanup.
func DefaultCron(integritySpec, cleanupSpec string) ([]CronRegistration, error) {
	var regs []CronRegistration
	if integritySpec != "" {
		task, err := NewLedgerIntegrityTask(LedgerIntegrityPayload{})
		if err != nil {
			return nil, err
		}
		regs = append(regs, CronRegistration{Spec: integritySpec, Task: task, Options: []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(1)}})
	}
	if cleanupSpec != "" {
		task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
		if err != nil {
			return nil, err
		}
		regs = append(regs, CronRegistration{Spec: cleanupSpec, Task: task, Options: []asynq.Option{asynq.Queue(QueueDefault)}})
	}
	return regs, nil
}
