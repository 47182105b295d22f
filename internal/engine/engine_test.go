package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcbaptista/what-can-i-cook/internal/errors"
	testutil "github.com/gcbaptista/what-can-i-cook/internal/testing"
	"github.com/gcbaptista/what-can-i-cook/model"
	"github.com/gcbaptista/what-can-i-cook/store"
)

func newLoadedEngine(t *testing.T, recipes []model.Recipe) *Engine {
	t.Helper()
	eng := NewEngine(Options{Source: testutil.NewStaticSource(recipes)})
	t.Cleanup(eng.Close)
	_, err := eng.Rebuild(context.Background(), true)
	require.NoError(t, err)
	return eng
}

func TestEngine_FindMatches_Scenario(t *testing.T) {
	eng := newLoadedEngine(t, []model.Recipe{
		testutil.Recipe("R1", "R1", "chicken", "rice", "onion"),
		testutil.Recipe("R2", "R2", "beef", "rice"),
	})

	results, err := eng.FindMatches(model.MatchRequest{
		OwnedIngredients:   []string{"Rice", "Chicken"},
		MinMatchPercentage: 50,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "R1", results[0].RecipeID)
	assert.InDelta(t, 66.7, results[0].MatchPercentage, 0.05)
	assert.Equal(t, 2, results[0].MatchedIngredientsCount)
	assert.Equal(t, []string{"onion"}, results[0].MissingIngredients)

	assert.Equal(t, "R2", results[1].RecipeID)
	assert.Equal(t, 50.0, results[1].MatchPercentage)
	assert.Equal(t, 1, results[1].MatchedIngredientsCount)
	assert.Equal(t, []string{"beef"}, results[1].MissingIngredients)
}

func TestEngine_FindMatches_InvalidRequest(t *testing.T) {
	eng := newLoadedEngine(t, testutil.SampleRecipes())

	tests := []struct {
		name  string
		req   model.MatchRequest
		field string
	}{
		{"empty after normalization", model.MatchRequest{OwnedIngredients: []string{""}}, "ingredients"},
		{"whitespace only", model.MatchRequest{OwnedIngredients: []string{"  ", "\t"}}, "ingredients"},
		{"no ingredients", model.MatchRequest{}, "ingredients"},
		{"threshold below range", model.MatchRequest{OwnedIngredients: []string{"egg"}, MinMatchPercentage: -1}, "min_match_percentage"},
		{"threshold above range", model.MatchRequest{OwnedIngredients: []string{"egg"}, MinMatchPercentage: 101}, "min_match_percentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := eng.FindMatches(tt.req)
			assert.Nil(t, results)
			require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

			var invalid *apperrors.InvalidRequestError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestEngine_FindMatches_BeforeFirstBuild(t *testing.T) {
	eng := NewEngine(Options{})
	defer eng.Close()

	_, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg"}})
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)

	_, err = eng.Stats()
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)

	_, err = eng.GetRecipe("r1")
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)
	assert.False(t, eng.Loaded())
}

func TestEngine_FindMatches_EmptyCorpus(t *testing.T) {
	eng := newLoadedEngine(t, nil)

	results, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg"}})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEngine_FindMatches_ThresholdZeroExcludesZeroOverlap(t *testing.T) {
	eng := newLoadedEngine(t, testutil.SampleRecipes())

	results, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg"}, MinMatchPercentage: 0})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r3", results[0].RecipeID)
}

func TestEngine_FindMatches_Idempotent(t *testing.T) {
	eng := newLoadedEngine(t, testutil.SampleRecipes())
	req := model.MatchRequest{OwnedIngredients: []string{"chicken", "rice", "garlic"}, MinMatchPercentage: 30}

	first, err := eng.FindMatches(req)
	require.NoError(t, err)
	second, err := eng.FindMatches(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for _, r := range first {
		assert.Equal(t, r.TotalIngredientsCount, r.MatchedIngredientsCount+len(r.MissingIngredients))
		assert.GreaterOrEqual(t, r.MatchPercentage, 0.0)
		assert.LessOrEqual(t, r.MatchPercentage, 100.0)
	}
}

func TestEngine_FindMatches_MaxResults(t *testing.T) {
	eng := NewEngine(Options{Source: testutil.NewStaticSource(testutil.SampleRecipes()), MaxResults: 1})
	defer eng.Close()
	_, err := eng.Rebuild(context.Background(), false)
	require.NoError(t, err)

	results, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"chicken", "rice"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].RecipeID)
}

func TestEngine_GetRecipe(t *testing.T) {
	eng := newLoadedEngine(t, testutil.SampleRecipes())

	recipe, err := eng.GetRecipe("r1")
	require.NoError(t, err)
	assert.Equal(t, "Chicken Fried Rice", recipe.Name)

	recipe.Name = "mutated"
	again, err := eng.GetRecipe("r1")
	require.NoError(t, err)
	assert.Equal(t, "Chicken Fried Rice", again.Name)

	_, err = eng.GetRecipe("r5")
	assert.ErrorIs(t, err, apperrors.ErrRecipeNotFound)
}

func TestEngine_FindMatches_ResultsDoNotShareIndexedRecipes(t *testing.T) {
	eng := newLoadedEngine(t, []model.Recipe{
		testutil.Recipe("a", "Apple Pie", "apple", "flour"),
		testutil.Recipe("b", "Banana Bread", "banana", "flour"),
	})
	req := model.MatchRequest{OwnedIngredients: []string{"flour"}, MinMatchPercentage: 0}

	first, err := eng.FindMatches(req)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "a", first[0].RecipeID)

	first[0].Recipe.Name = "zzz"
	first[0].Recipe.Ingredients[0].Name = "mutated"

	second, err := eng.FindMatches(req)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "a", second[0].RecipeID)
	assert.Equal(t, "Apple Pie", second[0].Recipe.Name)
	assert.Equal(t, []string{"apple"}, second[0].MissingIngredients)

	recipe, err := eng.GetRecipe("a")
	require.NoError(t, err)
	assert.Equal(t, "Apple Pie", recipe.Name)
	assert.Equal(t, "apple", recipe.Ingredients[0].Name)
}

func TestEngine_Stats(t *testing.T) {
	eng := newLoadedEngine(t, testutil.SampleRecipes())

	stats, err := eng.Stats()
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Recipes)
	assert.Equal(t, 1, stats.SkippedEmpty)
	assert.Equal(t, 1, stats.SkippedDuplicate)
	assert.Equal(t, "static", stats.Source)
	assert.False(t, stats.BuiltAt.IsZero())
}

func TestEngine_Rebuild_FailureKeepsPreviousIndex(t *testing.T) {
	source := testutil.NewStaticSource(testutil.SampleRecipes())
	eng := NewEngine(Options{Source: source})
	defer eng.Close()

	_, err := eng.Rebuild(context.Background(), true)
	require.NoError(t, err)

	source.SetErr(errors.New("connection refused"))
	_, err = eng.Rebuild(context.Background(), true)
	require.ErrorIs(t, err, apperrors.ErrSourceUnavailable)

	results, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r3", results[0].RecipeID)
}

func TestEngine_Rebuild_NoSource(t *testing.T) {
	eng := NewEngine(Options{})
	defer eng.Close()

	_, err := eng.Rebuild(context.Background(), false)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
}

func TestEngine_Rebuild_UsesCache(t *testing.T) {
	source := testutil.NewStaticSource(testutil.SampleRecipes())
	cache := &testutil.MemoryCache{}
	eng := NewEngine(Options{Source: source, Cache: cache})
	defer eng.Close()

	_, err := eng.Rebuild(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls())
	assert.Equal(t, 1, cache.Sets())

	_, err = eng.Rebuild(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls(), "cache hit must skip the source")
	assert.Equal(t, 1, cache.Sets())

	_, err = eng.Rebuild(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, source.Calls(), "forced rebuild bypasses the cache")
	assert.Equal(t, 2, cache.Sets())
}

func TestEngine_Rebuild_CacheErrorFallsBackToSource(t *testing.T) {
	source := testutil.NewStaticSource(testutil.SampleRecipes())
	cache := &testutil.MemoryCache{GetErr: errors.New("redis down")}
	eng := NewEngine(Options{Source: source, Cache: cache})
	defer eng.Close()

	_, err := eng.Rebuild(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, source.Calls())
}

func TestEngine_RestoreFromDisk(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	writer := NewEngine(Options{Source: testutil.NewStaticSource(testutil.SampleRecipes()), Store: fs})
	_, err = writer.Rebuild(context.Background(), true)
	require.NoError(t, err)
	writer.Close()

	reader := NewEngine(Options{Store: fs})
	defer reader.Close()

	restored, err := reader.RestoreFromDisk()
	require.NoError(t, err)
	assert.True(t, restored)

	results, err := reader.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg", "butter", "salt"}, MinMatchPercentage: 100})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r3", results[0].RecipeID)

	restored, err = reader.RestoreFromDisk()
	require.NoError(t, err)
	assert.False(t, restored, "an already loaded engine is left alone")
}

func TestEngine_RestoreFromDisk_Empty(t *testing.T) {
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	eng := NewEngine(Options{Store: fs})
	defer eng.Close()

	restored, err := eng.RestoreFromDisk()
	require.NoError(t, err)
	assert.False(t, restored)
	assert.False(t, eng.Loaded())
}

func TestEngine_ConcurrentQueriesDuringRebuild(t *testing.T) {
	source := testutil.NewStaticSource([]model.Recipe{testutil.Recipe("a", "A", "egg", "milk")})
	eng := NewEngine(Options{Source: source})
	defer eng.Close()
	_, err := eng.Rebuild(context.Background(), true)
	require.NoError(t, err)

	next := []model.Recipe{
		testutil.Recipe("b", "B", "egg"),
		testutil.Recipe("c", "C", "egg", "flour"),
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				results, err := eng.FindMatches(model.MatchRequest{OwnedIngredients: []string{"egg"}})
				if !assert.NoError(t, err) {
					return
				}
				// Every query sees exactly one snapshot: the old one or the new one.
				if len(results) != 1 && len(results) != 2 {
					t.Errorf("unexpected result count %d", len(results))
					return
				}
				if len(results) == 2 {
					assert.Equal(t, "b", results[0].RecipeID)
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			source.SetRecipes(next)
		} else {
			source.SetRecipes([]model.Recipe{testutil.Recipe("a", "A", "egg", "milk")})
		}
		_, err := eng.Rebuild(context.Background(), true)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestEngine_RebuildAsync(t *testing.T) {
	eng := NewEngine(Options{Source: testutil.NewStaticSource(testutil.SampleRecipes())})
	defer eng.Close()

	jobID, err := eng.RebuildAsync(true)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	job := testutil.WaitForJob(t, eng, jobID, testutil.DefaultJobPollingOptions())
	testutil.AssertJobCompleted(t, job, model.JobTypeRebuildIndex)
	require.NotNil(t, job.Progress)
	assert.Equal(t, job.Progress.Total, job.Progress.Current)
	assert.Equal(t, "true", job.Metadata["force"])
	assert.Equal(t, "static", job.Metadata["source"])
	assert.True(t, eng.Loaded())

	assert.Len(t, eng.ListJobs(nil), 1)
	assert.Equal(t, int64(1), eng.GetJobMetrics().JobsCompleted)
}

func TestEngine_RebuildAsync_Failure(t *testing.T) {
	source := testutil.NewStaticSource(nil)
	source.SetErr(errors.New("timeout"))
	eng := NewEngine(Options{Source: source})
	defer eng.Close()

	jobID, err := eng.RebuildAsync(false)
	require.NoError(t, err)

	job := testutil.WaitForJob(t, eng, jobID, testutil.DefaultJobPollingOptions())
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "timeout")
	assert.False(t, eng.Loaded())
}

func TestEngine_StartRefresher(t *testing.T) {
	source := testutil.NewStaticSource(testutil.SampleRecipes())
	eng := NewEngine(Options{Source: source})
	defer eng.Close()

	eng.StartRefresher(10 * time.Millisecond)

	require.Eventually(t, eng.Loaded, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		for _, job := range eng.ListJobs(nil) {
			if job.Type == model.JobTypeRefreshIndex && job.Status == model.JobStatusCompleted {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}
