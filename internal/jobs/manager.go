// Package jobs runs corpus maintenance work (rebuilds, restores) in the background
// and keeps a bounded history of what ran.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/model"
)

const cleanupInterval = time.Hour

// Func is the body of a job. ctx is cancelled when the manager stops.
type Func func(ctx context.Context, job model.Job) error

// Manager executes jobs on a bounded worker pool and tracks their lifecycle.
type Manager struct {
	mu        sync.RWMutex
	jobs      map[string]*model.Job
	workers   chan struct{}
	retention time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics *JobMetrics
}

// NewManager creates a manager that runs at most maxWorkers jobs at once and forgets
// finished jobs after retention (0 keeps them forever).
func NewManager(maxWorkers int, retention time.Duration) *Manager {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:      make(map[string]*model.Job),
		workers:   make(chan struct{}, maxWorkers),
		retention: retention,
		ctx:       ctx,
		cancel:    cancel,
		metrics:   NewJobMetrics(),
	}
}

// Start launches the periodic cleanup of finished jobs.
func (m *Manager) Start() {
	logging.L().Info("job manager started", zap.Int("workers", cap(m.workers)))
	if m.retention <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanupOldJobs(m.retention)
			case <-m.ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels running jobs and waits for them to return.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	logging.L().Info("job manager stopped")
}

// CreateJob registers a pending job and returns its id.
func (m *Manager) CreateJob(jobType model.JobType, metadata map[string]string) string {
	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.metrics.RecordJobCreated(jobType)
	logging.L().Debug("job created", zap.String("job_id", job.ID), zap.String("type", string(jobType)))
	return job.ID
}

// GetJob returns a copy of the job.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns copies of all jobs, newest first, optionally filtered by status.
func (m *Manager) ListJobs(status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	result := make([]*model.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			result = append(result, copyJob(job))
		}
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob moves a pending job to running and runs fn on a worker.
// It blocks only while waiting for a free worker slot.
func (m *Manager) ExecuteJob(jobID string, fn Func) error {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job '%s' is not pending (current: %s)", jobID, job.Status)
	}
	m.mu.Unlock()

	select {
	case m.workers <- struct{}{}:
	case <-m.ctx.Done():
		m.finish(jobID, model.JobStatusCancelled, "job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	m.mu.Lock()
	job.Status = model.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now
	snapshot := *copyJob(job)
	m.mu.Unlock()
	m.metrics.RecordJobStatusChange(model.JobStatusPending, model.JobStatusRunning)

	m.wg.Add(1)
	go func() {
		defer func() {
			<-m.workers
			m.wg.Done()
		}()

		log := logging.L().With(zap.String("job_id", jobID), zap.String("type", string(snapshot.Type)))
		start := time.Now()
		err := m.run(fn, snapshot)
		elapsed := time.Since(start)

		switch {
		case err == nil:
			m.finish(jobID, model.JobStatusCompleted, "")
			m.metrics.RecordJobCompleted(snapshot.Type, elapsed)
			log.Info("job completed", zap.Duration("took", elapsed))
		case m.ctx.Err() != nil:
			m.finish(jobID, model.JobStatusCancelled, err.Error())
			log.Warn("job cancelled", zap.Error(err))
		default:
			m.finish(jobID, model.JobStatusFailed, err.Error())
			m.metrics.RecordJobFailed(snapshot.Type)
			log.Error("job failed", zap.Duration("took", elapsed), zap.Error(err))
		}
	}()

	return nil
}

func (m *Manager) run(fn Func, job model.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(m.ctx, job)
}

// UpdateJobProgress records progress for a job. Unknown ids are ignored.
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

func (m *Manager) finish(jobID string, status model.JobStatus, errMsg string) {
	m.mu.Lock()
	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return
	}
	old := job.Status
	job.Status = status
	if errMsg != "" {
		job.Error = errMsg
	}
	now := time.Now()
	job.CompletedAt = &now
	m.mu.Unlock()

	m.metrics.RecordJobStatusChange(old, status)
}

// CleanupOldJobs forgets jobs that finished more than maxAge ago.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	cleaned := 0
	for id, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			cleaned++
		}
	}
	if cleaned > 0 {
		logging.L().Info("cleaned up finished jobs", zap.Int("count", cleaned))
	}
	return cleaned
}

// GetMetrics returns a snapshot of job metrics.
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns completed / (completed + failed).
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of pending and running jobs.
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

func copyJob(job *model.Job) *model.Job {
	c := *job
	if job.Progress != nil {
		p := *job.Progress
		c.Progress = &p
	}
	if job.Metadata != nil {
		c.Metadata = make(map[string]string, len(job.Metadata))
		for k, v := range job.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
