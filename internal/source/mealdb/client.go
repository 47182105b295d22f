// Package mealdb fetches the recipe corpus from TheMealDB v1 JSON API.
package mealdb

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/config"
	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/model"
)

// SourceName identifies this source in snapshots and errors.
const SourceName = "mealdb"

// maxIngredientSlots is the number of strIngredientN/strMeasureN pairs per meal.
const maxIngredientSlots = 20

const letters = "abcdefghijklmnopqrstuvwxyz"

// Client is a CorpusSource backed by TheMealDB.
type Client struct {
	http        *resty.Client
	strategy    string
	concurrency int
}

// NewClient builds a client from configuration.
func NewClient(cfg config.MealDBConfig) *Client {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{
		http:        httpClient,
		strategy:    cfg.Strategy,
		concurrency: concurrency,
	}
}

// Name implements services.CorpusSource.
func (c *Client) Name() string {
	return SourceName
}

// FetchAll returns every meal reachable through the configured strategy,
// deduplicated by id and ordered by id.
func (c *Client) FetchAll(ctx context.Context) ([]model.Recipe, error) {
	start := time.Now()

	var (
		recipes []model.Recipe
		err     error
	)
	if c.strategy == config.StrategyLetters {
		recipes, err = c.fetchByLetters(ctx)
	} else {
		recipes, err = c.fetchBySearch(ctx)
	}
	if err != nil {
		return nil, err
	}

	recipes = dedupe(recipes)
	logging.L().Info("fetched recipes from TheMealDB",
		zap.String("strategy", c.strategy),
		zap.Int("recipes", len(recipes)),
		zap.Duration("took", time.Since(start)))
	return recipes, nil
}

// fetchBySearch uses the empty-name search and falls back to walking categories
// when it fails or comes back empty.
func (c *Client) fetchBySearch(ctx context.Context) ([]model.Recipe, error) {
	recipes, err := c.SearchByName(ctx, "")
	if err == nil && len(recipes) > 0 {
		return recipes, nil
	}
	if ctx.Err() != nil {
		return nil, errors.NewSourceError(SourceName, "search", ctx.Err())
	}
	logging.L().Warn("empty-name search returned nothing, falling back to categories", zap.Error(err))
	return c.fetchByCategories(ctx)
}

func (c *Client) fetchByCategories(ctx context.Context) ([]model.Recipe, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, category := range categories {
		categoryIDs, err := c.FilterByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, id := range categoryIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	return c.lookupAll(ctx, ids)
}

func (c *Client) fetchByLetters(ctx context.Context) ([]model.Recipe, error) {
	keys := make([]string, len(letters))
	for i, l := range letters {
		keys[i] = string(l)
	}

	batches, err := c.parallel(ctx, keys, func(ctx context.Context, letter string) ([]model.Recipe, error) {
		return c.SearchByFirstLetter(ctx, letter)
	})
	if err != nil {
		return nil, err
	}

	var recipes []model.Recipe
	for _, batch := range batches {
		recipes = append(recipes, batch...)
	}
	return recipes, nil
}

// lookupAll resolves ids to full meals. Ids that no longer resolve are skipped.
func (c *Client) lookupAll(ctx context.Context, ids []string) ([]model.Recipe, error) {
	batches, err := c.parallel(ctx, ids, func(ctx context.Context, id string) ([]model.Recipe, error) {
		recipe, err := c.LookupByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if recipe == nil {
			logging.L().Debug("meal vanished between filter and lookup", zap.String("id", id))
			return nil, nil
		}
		return []model.Recipe{*recipe}, nil
	})
	if err != nil {
		return nil, err
	}

	recipes := make([]model.Recipe, 0, len(ids))
	for _, batch := range batches {
		recipes = append(recipes, batch...)
	}
	return recipes, nil
}

// parallel runs fn for every key on at most c.concurrency goroutines and returns
// the results in key order. The first error cancels the remaining calls.
func (c *Client) parallel(ctx context.Context, keys []string, fn func(context.Context, string) ([]model.Recipe, error)) ([][]model.Recipe, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]model.Recipe, len(keys))
	sem := make(chan struct{}, c.concurrency)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for i, key := range keys {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int, key string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			batch, err := fn(ctx, key)
			if err != nil {
				errOnce.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = batch
		}(i, key)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSourceError(SourceName, "fetch", err)
	}
	return results, nil
}

// SearchByName calls search.php?s=name. An empty name lists every meal the API
// is willing to return in one page.
func (c *Client) SearchByName(ctx context.Context, name string) ([]model.Recipe, error) {
	var resp mealsResponse
	if err := c.get(ctx, "/search.php", map[string]string{"s": name}, &resp, "search"); err != nil {
		return nil, err
	}
	return resp.recipes(), nil
}

// SearchByFirstLetter calls search.php?f=letter.
func (c *Client) SearchByFirstLetter(ctx context.Context, letter string) ([]model.Recipe, error) {
	var resp mealsResponse
	if err := c.get(ctx, "/search.php", map[string]string{"f": letter}, &resp, "search_letter"); err != nil {
		return nil, err
	}
	return resp.recipes(), nil
}

// LookupByID calls lookup.php?i=id. It returns nil, nil when the id is unknown.
func (c *Client) LookupByID(ctx context.Context, id string) (*model.Recipe, error) {
	var resp mealsResponse
	if err := c.get(ctx, "/lookup.php", map[string]string{"i": id}, &resp, "lookup"); err != nil {
		return nil, err
	}
	recipes := resp.recipes()
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

// Categories calls categories.php and returns the category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var resp categoriesResponse
	if err := c.get(ctx, "/categories.php", nil, &resp, "categories"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Categories))
	for _, category := range resp.Categories {
		if name := strings.TrimSpace(category.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// FilterByCategory calls filter.php?c=category and returns the meal ids.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]string, error) {
	var resp mealsResponse
	if err := c.get(ctx, "/filter.php", map[string]string{"c": category}, &resp, "filter"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Meals))
	for _, meal := range resp.Meals {
		if id := field(meal, "idMeal"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out interface{}, op string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(out).
		ForceContentType("application/json").
		Get(path)
	if err != nil {
		return errors.NewSourceError(SourceName, op, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.NewSourceError(SourceName, op, fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}
	return nil
}

func dedupe(recipes []model.Recipe) []model.Recipe {
	seen := make(map[string]struct{}, len(recipes))
	out := recipes[:0]
	for _, r := range recipes {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
