// Package testing provides fixtures and fakes shared by the service's tests.
package testing

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/model"
	"github.com/gcbaptista/what-can-i-cook/services"
	"github.com/gcbaptista/what-can-i-cook/store"
)

// Recipe builds a recipe whose ingredients carry no measures.
func Recipe(id, name string, ingredients ...string) model.Recipe {
	r := model.Recipe{ID: id, Name: name}
	for _, ing := range ingredients {
		r.Ingredients = append(r.Ingredients, model.Ingredient{Name: ing})
	}
	return r
}

// SampleRecipes is a small corpus covering ties, duplicates and anomalies.
func SampleRecipes() []model.Recipe {
	return []model.Recipe{
		Recipe("r1", "Chicken Fried Rice", "Chicken", "Rice", "Onion"),
		Recipe("r2", "Beef and Rice", "beef", " rice "),
		Recipe("r3", "Omelette", "Egg", "Butter", "Salt"),
		Recipe("r4", "Garlic Chicken", "chicken", "Garlic", "CHICKEN"),
		Recipe("r5", "Plain Water"),
		Recipe("r1", "Duplicate Id", "Chicken"),
	}
}

// WriteRecipesFile writes recipes as a JSON array into a temp dir and returns the path.
func WriteRecipesFile(t *testing.T, recipes []model.Recipe) string {
	t.Helper()
	data, err := json.Marshal(recipes)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// StaticSource is a services.CorpusSource serving a fixed recipe list.
// Setting Err makes every fetch fail; Block makes fetches wait for the channel.
type StaticSource struct {
	mu      sync.Mutex
	recipes []model.Recipe
	err     error
	block   chan struct{}
	calls   atomic.Int32
}

var _ services.CorpusSource = (*StaticSource)(nil)

// NewStaticSource creates a source returning recipes.
func NewStaticSource(recipes []model.Recipe) *StaticSource {
	return &StaticSource{recipes: recipes}
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) FetchAll(ctx context.Context) ([]model.Recipe, error) {
	s.calls.Add(1)

	s.mu.Lock()
	recipes, err, block := s.recipes, s.err, s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, errors.NewSourceError(s.Name(), "fetch", ctx.Err())
		}
	}
	if err != nil {
		return nil, errors.NewSourceError(s.Name(), "fetch", err)
	}
	out := make([]model.Recipe, len(recipes))
	copy(out, recipes)
	return out, nil
}

// SetRecipes replaces the served recipes.
func (s *StaticSource) SetRecipes(recipes []model.Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = recipes
}

// SetErr makes subsequent fetches fail with err; nil restores success.
func (s *StaticSource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetBlock makes fetches wait until ch is closed; nil disables blocking.
func (s *StaticSource) SetBlock(ch chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = ch
}

// Calls returns the number of FetchAll calls so far.
func (s *StaticSource) Calls() int {
	return int(s.calls.Load())
}

// MemoryCache is an in-process services.SnapshotCache.
type MemoryCache struct {
	mu     sync.Mutex
	snap   *store.Snapshot
	GetErr error
	sets   int
}

var _ services.SnapshotCache = (*MemoryCache)(nil)

func (c *MemoryCache) Get(context.Context) (*store.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	if c.snap == nil {
		return nil, errors.ErrCacheMiss
	}
	return c.snap, nil
}

func (c *MemoryCache) Set(_ context.Context, snap *store.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = snap
	c.sets++
	return nil
}

func (c *MemoryCache) Close() error { return nil }

// Sets returns how many snapshots were written.
func (c *MemoryCache) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

// JobPollingOptions configures WaitForJob.
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultJobPollingOptions returns defaults suitable for unit tests.
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      5 * time.Second,
		PollInterval: 5 * time.Millisecond,
	}
}

// WaitForJob polls until the job reaches a terminal status and returns it.
func WaitForJob(t *testing.T, tracker services.JobTracker, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	deadline := time.Now().Add(opts.Timeout)
	for {
		job, err := tracker.GetJob(jobID)
		require.NoError(t, err, "failed to get job status")
		if job.IsTerminal() {
			return job
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not finish within %v (status %s)", jobID, opts.Timeout, job.Status)
		}
		time.Sleep(opts.PollInterval)
	}
}

// AssertJobCompleted verifies that a job completed successfully.
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "job should be completed")
	assert.Equal(t, expectedType, job.Type, "job type should match")
	assert.NotNil(t, job.CompletedAt, "job should have completion timestamp")
	assert.Empty(t, job.Error, "job should not have error")
}
