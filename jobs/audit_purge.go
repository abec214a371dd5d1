package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AuditPurger deletes settled audit entries older than the cutoff.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPurgeJob removes settled audit entries older than the retention
// horizon. The sink itself never purges; retention is strictly an
// offline concern.
type AuditPurgeJob struct {
	Repo      AuditPurger
	Logger    *slog.Logger
	Retention time.Duration
	clock     func() time.Time
}

// NewAuditPurgeJob initialises the purge handler.
func NewAuditPurgeJob(repo AuditPurger, logger *slog.Logger, retention time.Duration) *AuditPurgeJob {
	return &AuditPurgeJob{
		Repo:      repo,
		Logger:    logger,
		Retention: retention,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one purge run.
func (j *AuditPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("audit purge: handler not configured")
	}
	var payload AuditPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.Retention
	}
	if retention <= 0 {
		retention = 365 * 24 * time.Hour
	}

	cutoff := j.now().Add(-retention)
	removed, err := j.Repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		j.logger().Error("purge failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("audit purge complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("removed", removed),
	)
	return nil
}

func (j *AuditPurgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditPurge))
	}
	return slog.Default().With(slog.String("job", TaskAuditPurge))
}

func (j *AuditPurgeJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
