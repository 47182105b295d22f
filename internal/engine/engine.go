// Package engine owns the served corpus index and answers match queries against it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/jobs"
	"github.com/gcbaptista/what-can-i-cook/internal/matching"
	"github.com/gcbaptista/what-can-i-cook/internal/normalizer"
	"github.com/gcbaptista/what-can-i-cook/model"
	"github.com/gcbaptista/what-can-i-cook/services"
)

const (
	defaultFetchTimeout = 2 * time.Minute
	defaultJobWorkers   = 2
	defaultJobRetention = 24 * time.Hour
)

// Options wires the engine to its collaborators. Only Source is required for
// rebuilds; Cache and Store are optional.
type Options struct {
	Source       services.CorpusSource
	Cache        services.SnapshotCache
	Store        services.SnapshotStore
	Jobs         *jobs.Manager
	MaxResults   int
	FetchTimeout time.Duration
}

// Engine serves queries lock-free from an atomically published IndexInstance.
// Rebuilds are serialized among themselves and never block queries.
// It implements services.Matcher and services.CorpusManager.
type Engine struct {
	current   atomic.Pointer[IndexInstance]
	rebuildMu sync.Mutex

	source       services.CorpusSource
	cache        services.SnapshotCache
	store        services.SnapshotStore
	jobManager   *jobs.Manager
	ownsJobs     bool
	maxResults   int
	fetchTimeout time.Duration

	stopRefresh context.CancelFunc
	refreshWG   sync.WaitGroup
}

// NewEngine creates an engine with no corpus loaded. Queries fail with
// CorpusUnavailable until the first LoadSnapshot, RestoreFromDisk or Rebuild.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		source:       opts.Source,
		cache:        opts.Cache,
		store:        opts.Store,
		jobManager:   opts.Jobs,
		maxResults:   opts.MaxResults,
		fetchTimeout: opts.FetchTimeout,
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = defaultFetchTimeout
	}
	if e.jobManager == nil {
		e.jobManager = jobs.NewManager(defaultJobWorkers, defaultJobRetention)
		e.jobManager.Start()
		e.ownsJobs = true
	}
	return e
}

// Close stops the background refresher and, if the engine created it, the job manager.
func (e *Engine) Close() {
	if e.stopRefresh != nil {
		e.stopRefresh()
		e.refreshWG.Wait()
	}
	if e.ownsJobs {
		e.jobManager.Stop()
	}
}

// FindMatches returns the recipes the owned ingredients cover to at least
// MinMatchPercentage, best match first.
func (e *Engine) FindMatches(req model.MatchRequest) ([]model.MatchResult, error) {
	if req.MinMatchPercentage < 0 || req.MinMatchPercentage > 100 {
		return nil, errors.NewInvalidRequestError("min_match_percentage",
			fmt.Sprintf("must be between 0 and 100, got %d", req.MinMatchPercentage))
	}

	owned := normalizer.NewSet(req.OwnedIngredients)
	if owned.Len() == 0 {
		return nil, errors.NewInvalidRequestError("ingredients", "at least one non-empty ingredient is required")
	}

	// Load once: the whole query runs against this instance even if a rebuild
	// publishes a new one meanwhile.
	inst := e.current.Load()
	if inst == nil {
		return nil, errors.NewCorpusUnavailableError("")
	}

	results := matching.Rank(matching.ScoreCandidates(inst.index, owned), req.MinMatchPercentage)
	if e.maxResults > 0 && len(results) > e.maxResults {
		results = results[:e.maxResults]
	}
	return results, nil
}

// GetRecipe returns a copy of a recipe from the served snapshot.
func (e *Engine) GetRecipe(id string) (*model.Recipe, error) {
	inst := e.current.Load()
	if inst == nil {
		return nil, errors.NewCorpusUnavailableError("")
	}
	recipe, ok := inst.index.Lookup(id)
	if !ok {
		return nil, errors.NewRecipeNotFoundError(id)
	}
	clone := recipe.Clone()
	return &clone, nil
}

// Loaded reports whether any snapshot has been published.
func (e *Engine) Loaded() bool {
	return e.current.Load() != nil
}

// Stats describes the served snapshot.
func (e *Engine) Stats() (services.CorpusStats, error) {
	inst := e.current.Load()
	if inst == nil {
		return services.CorpusStats{}, errors.NewCorpusUnavailableError("")
	}
	return inst.Stats(), nil
}

// GetJob returns a background job by id.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns background jobs, newest first.
func (e *Engine) ListJobs(status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(status)
}

// GetJobMetrics returns aggregate job metrics.
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}
