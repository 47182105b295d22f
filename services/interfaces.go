package services

import (
	"context"
	"time"

	"github.com/gcbaptista/what-can-i-cook/index"
	"github.com/gcbaptista/what-can-i-cook/internal/jobs"
	"github.com/gcbaptista/what-can-i-cook/model"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// CorpusSource produces the full list of recipes the index is built from.
type CorpusSource interface {
	Name() string
	FetchAll(ctx context.Context) ([]model.Recipe, error)
}

// SnapshotCache shares fetched snapshots between processes.
// Get returns errors.ErrCacheMiss when no entry is present.
type SnapshotCache interface {
	Get(ctx context.Context) (*store.Snapshot, error)
	Set(ctx context.Context, snap *store.Snapshot) error
	Close() error
}

// SnapshotStore persists the last good snapshot locally.
type SnapshotStore interface {
	Save(snap *store.Snapshot) error
	Load() (*store.Snapshot, error)
}

// CorpusStats describes the snapshot currently being served.
type CorpusStats struct {
	index.BuildStats
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	BuiltAt   time.Time `json:"built_at"`
}

// Matcher answers "what can I cook" queries.
type Matcher interface {
	FindMatches(req model.MatchRequest) ([]model.MatchResult, error)
	GetRecipe(id string) (*model.Recipe, error)
}

// CorpusManager controls the lifecycle of the served corpus.
type CorpusManager interface {
	Loaded() bool
	Stats() (CorpusStats, error)
	Rebuild(ctx context.Context, force bool) (CorpusStats, error)
	RebuildAsync(force bool) (string, error)
}

// JobTracker exposes background job state to the API.
type JobTracker interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(status *model.JobStatus) []*model.Job
	GetJobMetrics() jobs.JobMetricsData
}

// Engine is everything the HTTP layer needs from the matching engine.
type Engine interface {
	Matcher
	CorpusManager
	JobTracker
}

// MatchAnalytics records served queries and reports on them.
type MatchAnalytics interface {
	TrackMatchEvent(event model.MatchEvent)
	GetDashboardData() model.AnalyticsDashboard
}
