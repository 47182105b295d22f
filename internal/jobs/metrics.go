package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// recentWindow bounds how many execution times are kept per job type.
const recentWindow = 50

// JobMetricsData is a point-in-time copy of JobMetrics.
type JobMetricsData struct {
	JobsCreated          int64                           `json:"jobs_created"`
	JobsCompleted        int64                           `json:"jobs_completed"`
	JobsFailed           int64                           `json:"jobs_failed"`
	SuccessRate          float64                         `json:"success_rate"`
	TotalExecutionTime   time.Duration                   `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration                   `json:"average_execution_time_ns"`
	RecentAverageByType  map[model.JobType]time.Duration `json:"recent_average_by_type_ns"`
	JobsByType           map[model.JobType]int64         `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64       `json:"jobs_by_status"`
	LastUpdated          time.Time                       `json:"last_updated"`
}

// JobMetrics aggregates counters over the lifetime of a Manager.
type JobMetrics struct {
	mu            sync.RWMutex
	created       int64
	completed     int64
	failed        int64
	totalExecTime time.Duration
	byType        map[model.JobType]int64
	byStatus      map[model.JobStatus]int64
	recent        map[model.JobType][]time.Duration
	lastUpdated   time.Time
}

// NewJobMetrics creates an empty collector.
func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		byType:      make(map[model.JobType]int64),
		byStatus:    make(map[model.JobStatus]int64),
		recent:      make(map[model.JobType][]time.Duration),
		lastUpdated: time.Now(),
	}
}

func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.byType[jobType]++
	m.byStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()
}

func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" && m.byStatus[oldStatus] > 0 {
		m.byStatus[oldStatus]--
	}
	m.byStatus[newStatus]++
	m.lastUpdated = time.Now()
}

func (m *JobMetrics) RecordJobCompleted(jobType model.JobType, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.completed++
	m.totalExecTime += executionTime

	times := append(m.recent[jobType], executionTime)
	if len(times) > recentWindow {
		times = times[len(times)-recentWindow:]
	}
	m.recent[jobType] = times
	m.lastUpdated = time.Now()
}

func (m *JobMetrics) RecordJobFailed(model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failed++
	m.lastUpdated = time.Now()
}

// GetMetrics returns a deep copy of the current counters.
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := JobMetricsData{
		JobsCreated:         m.created,
		JobsCompleted:       m.completed,
		JobsFailed:          m.failed,
		SuccessRate:         m.successRateLocked(),
		TotalExecutionTime:  m.totalExecTime,
		RecentAverageByType: make(map[model.JobType]time.Duration, len(m.recent)),
		JobsByType:          make(map[model.JobType]int64, len(m.byType)),
		JobsByStatus:        make(map[model.JobStatus]int64, len(m.byStatus)),
		LastUpdated:         m.lastUpdated,
	}
	if m.completed > 0 {
		data.AverageExecutionTime = m.totalExecTime / time.Duration(m.completed)
	}
	for k, v := range m.byType {
		data.JobsByType[k] = v
	}
	for k, v := range m.byStatus {
		data.JobsByStatus[k] = v
	}
	for k, times := range m.recent {
		data.RecentAverageByType[k] = average(times)
	}
	return data
}

// GetSuccessRate returns a value in [0,1]; 1 when nothing has finished yet.
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.successRateLocked()
}

func (m *JobMetrics) successRateLocked() float64 {
	finished := m.completed + m.failed
	if finished == 0 {
		return 1.0
	}
	return float64(m.completed) / float64(finished)
}

// GetCurrentWorkload returns pending plus running jobs.
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byStatus[model.JobStatusPending] + m.byStatus[model.JobStatusRunning]
}

func average(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}
	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}
