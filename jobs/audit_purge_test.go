package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/multistock/multistock/jobs"
	_ "github.com/multistock/multistock/testing"
)

type stubPurger struct {
	cutoffs []time.Time
	removed int64
	err     error
}

func (s *stubPurger) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	return s.removed, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuditPurgeUsesConfiguredRetention(t *testing.T) {
	purger := &stubPurger{removed: 12}
	job := jobs.NewAuditPurgeJob(purger, discardLogger(), 30*24*time.Hour)

	task, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, purger.cutoffs, 1)
	want := time.Now().UTC().Add(-30 * 24 * time.Hour)
	require.WithinDuration(t, want, purger.cutoffs[0], time.Minute)
}

func TestAuditPurgePayloadOverridesRetention(t *testing.T) {
	purger := &stubPurger{}
	job := jobs.NewAuditPurgeJob(purger, discardLogger(), 30*24*time.Hour)

	task, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{Retention: 24 * time.Hour})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, purger.cutoffs, 1)
	want := time.Now().UTC().Add(-24 * time.Hour)
	require.WithinDuration(t, want, purger.cutoffs[0], time.Minute)
}

func TestAuditPurgeBadPayloadSkipsRetry(t *testing.T) {
	purger := &stubPurger{}
	job := jobs.NewAuditPurgeJob(purger, discardLogger(), time.Hour)

	task := asynq.NewTask(jobs.TaskAuditPurge, []byte("{not json"))
	err := job.Handle(context.Background(), task)

	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, purger.cutoffs)
}

func TestAuditPurgePropagatesStoreFailure(t *testing.T) {
	purger := &stubPurger{err: errors.New("db down")}
	job := jobs.NewAuditPurgeJob(purger, discardLogger(), time.Hour)

	task, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}
