// Package jobs hosts the asynq background workload: audit retention and
// expired session sweeps.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditPurge removes settled audit entries past the retention
	// horizon.
	TaskAuditPurge = "audit:purge"
	// TaskSessionSweep deletes expired session rows from postgres.
	TaskSessionSweep = "sessions:sweep"
)

// AuditPurgePayload parameterizes one purge run. A zero Retention falls
// back to the configured default.
type AuditPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPurgeTask constructs the purge task.
func NewAuditPurgeTask(payload AuditPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}

// NewSessionSweepTask constructs the sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
