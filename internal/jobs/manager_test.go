package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/model"
)

func waitForStatus(t *testing.T, m *Manager, jobID string, status model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = m.GetJob(jobID)
		return err == nil && job.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestManager_CreateJob(t *testing.T) {
	m := NewManager(2, 0)
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, map[string]string{"trigger": "test"})
	require.NotEmpty(t, jobID)

	job, err := m.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobTypeRebuildIndex, job.Type)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.Equal(t, "test", job.Metadata["trigger"])
	assert.False(t, job.IsTerminal())
}

func TestManager_GetJob_NotFound(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	_, err := m.GetJob("missing")
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestManager_ExecuteJob_Completes(t *testing.T) {
	m := NewManager(2, 0)
	m.Start()
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	err := m.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		m.UpdateJobProgress(job.ID, 1, 2, "fetching")
		m.UpdateJobProgress(job.ID, 2, 2, "indexed")
		return nil
	})
	require.NoError(t, err)

	job := waitForStatus(t, m, jobID, model.JobStatusCompleted)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 2, job.Progress.Current)
	assert.Equal(t, 100.0, job.Progress.GetProgressPercentage())
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	metrics := m.GetMetrics()
	assert.Equal(t, int64(1), metrics.JobsCreated)
	assert.Equal(t, int64(1), metrics.JobsCompleted)
	assert.Equal(t, int64(1), metrics.JobsByStatus[model.JobStatusCompleted])
	assert.Equal(t, int64(0), m.GetCurrentWorkload())
}

func TestManager_ExecuteJob_Fails(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	require.NoError(t, m.ExecuteJob(jobID, func(context.Context, model.Job) error {
		return errors.New("source unreachable")
	}))

	job := waitForStatus(t, m, jobID, model.JobStatusFailed)
	assert.Equal(t, "source unreachable", job.Error)
	assert.Equal(t, 0.0, m.GetJobSuccessRate())
}

func TestManager_ExecuteJob_RecoversPanic(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	require.NoError(t, m.ExecuteJob(jobID, func(context.Context, model.Job) error {
		panic("boom")
	}))

	job := waitForStatus(t, m, jobID, model.JobStatusFailed)
	assert.Contains(t, job.Error, "boom")
}

func TestManager_ExecuteJob_RejectsNonPending(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	require.NoError(t, m.ExecuteJob(jobID, func(context.Context, model.Job) error { return nil }))
	waitForStatus(t, m, jobID, model.JobStatusCompleted)

	err := m.ExecuteJob(jobID, func(context.Context, model.Job) error { return nil })
	assert.Error(t, err)

	err = m.ExecuteJob("missing", func(context.Context, model.Job) error { return nil })
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestManager_Stop_CancelsRunningJobs(t *testing.T) {
	m := NewManager(1, 0)

	started := make(chan struct{})
	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	require.NoError(t, m.ExecuteJob(jobID, func(ctx context.Context, _ model.Job) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))

	<-started
	m.Stop()

	job, err := m.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCancelled, job.Status)
}

func TestManager_ListJobs(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	first := m.CreateJob(model.JobTypeRebuildIndex, nil)
	time.Sleep(2 * time.Millisecond)
	second := m.CreateJob(model.JobTypeRefreshIndex, nil)

	all := m.ListJobs(nil)
	require.Len(t, all, 2)
	assert.Equal(t, second, all[0].ID)
	assert.Equal(t, first, all[1].ID)

	require.NoError(t, m.ExecuteJob(first, func(context.Context, model.Job) error { return nil }))
	waitForStatus(t, m, first, model.JobStatusCompleted)

	pending := model.JobStatusPending
	filtered := m.ListJobs(&pending)
	require.Len(t, filtered, 1)
	assert.Equal(t, second, filtered[0].ID)
}

func TestManager_CleanupOldJobs(t *testing.T) {
	m := NewManager(1, 0)
	defer m.Stop()

	jobID := m.CreateJob(model.JobTypeRebuildIndex, nil)
	require.NoError(t, m.ExecuteJob(jobID, func(context.Context, model.Job) error { return nil }))
	waitForStatus(t, m, jobID, model.JobStatusCompleted)

	assert.Equal(t, 0, m.CleanupOldJobs(time.Hour))
	assert.Equal(t, 1, m.CleanupOldJobs(0))

	_, err := m.GetJob(jobID)
	assert.ErrorIs(t, err, apperrors.ErrJobNotFound)
}

func TestJobMetrics_SuccessRateAndAverages(t *testing.T) {
	metrics := NewJobMetrics()
	assert.Equal(t, 1.0, metrics.GetSuccessRate())

	metrics.RecordJobCreated(model.JobTypeRebuildIndex)
	metrics.RecordJobCreated(model.JobTypeRebuildIndex)
	metrics.RecordJobCompleted(model.JobTypeRebuildIndex, 10*time.Millisecond)
	metrics.RecordJobCompleted(model.JobTypeRebuildIndex, 30*time.Millisecond)
	metrics.RecordJobCreated(model.JobTypeRebuildIndex)
	metrics.RecordJobFailed(model.JobTypeRebuildIndex)

	data := metrics.GetMetrics()
	assert.Equal(t, int64(3), data.JobsCreated)
	assert.Equal(t, 20*time.Millisecond, data.AverageExecutionTime)
	assert.Equal(t, 20*time.Millisecond, data.RecentAverageByType[model.JobTypeRebuildIndex])
	assert.InDelta(t, 2.0/3.0, data.SuccessRate, 1e-9)
}
