// Package analytics records served match queries and aggregates them for the dashboard.
package analytics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/internal/normalizer"
	"github.com/gcbaptista/what-can-i-cook/model"
)

const (
	// DefaultMaxEvents bounds the in-memory event history.
	DefaultMaxEvents = 10000
	topN             = 10
)

// Service keeps a bounded window of match events in memory. When dataFile is set
// the window survives restarts via Load and Flush.
type Service struct {
	mu        sync.RWMutex
	events    []model.MatchEvent
	maxEvents int
	dataFile  string
	since     time.Time
	now       func() time.Time
}

// NewService creates an analytics service. dataFile may be empty.
func NewService(maxEvents int, dataFile string) *Service {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Service{
		events:    make([]model.MatchEvent, 0),
		maxEvents: maxEvents,
		dataFile:  dataFile,
		since:     time.Now().UTC(),
		now:       time.Now,
	}
}

// TrackMatchEvent stores an event, stamping it if the caller left Timestamp zero.
func (s *Service) TrackMatchEvent(event model.MatchEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
}

// EventCount returns the number of retained events.
func (s *Service) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// GetDashboardData aggregates all retained events.
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dashboard := model.AnalyticsDashboard{
		TotalQueries:       len(s.events),
		PopularIngredients: make([]model.PopularIngredient, 0),
		PopularRecipes:     make([]model.PopularRecipe, 0),
		Since:              s.since,
	}
	if len(s.events) == 0 {
		return dashboard
	}

	var (
		totalTime    time.Duration
		totalResults int
		totalOwned   int
		served       int
		ingredients  = make(map[string]int)
		recipes      = make(map[string]int)
	)

	for _, event := range s.events {
		totalTime += event.ResponseTime
		addToDistribution(&dashboard.ResponseTimeDistribution, event.ResponseTime)

		if event.Failed {
			dashboard.FailedQueries++
			continue
		}
		served++
		totalResults += event.ResultCount
		if event.ResultCount == 0 {
			dashboard.EmptyResultQueries++
		}

		owned := normalizer.NewSet(event.OwnedIngredients)
		totalOwned += owned.Len()
		for _, token := range owned.Tokens() {
			ingredients[token.String()]++
		}
		for _, id := range event.TopRecipeIDs {
			recipes[id]++
		}
	}

	dashboard.AvgResponseTime = float64(totalTime.Microseconds()) / 1000 / float64(len(s.events))
	if served > 0 {
		dashboard.AvgResultCount = float64(totalResults) / float64(served)
		dashboard.AvgOwnedIngredients = float64(totalOwned) / float64(served)
	}

	for _, count := range topCounts(ingredients) {
		dashboard.PopularIngredients = append(dashboard.PopularIngredients, model.PopularIngredient{Ingredient: count.key, Count: count.n})
	}
	for _, count := range topCounts(recipes) {
		dashboard.PopularRecipes = append(dashboard.PopularRecipes, model.PopularRecipe{RecipeID: count.key, Count: count.n})
	}
	return dashboard
}

func addToDistribution(dist *model.ResponseTimeDistribution, d time.Duration) {
	switch {
	case d < time.Millisecond:
		dist.Bucket0To1ms++
	case d < 5*time.Millisecond:
		dist.Bucket1To5ms++
	case d < 25*time.Millisecond:
		dist.Bucket5To25ms++
	default:
		dist.Bucket25msPlus++
	}
}

type keyCount struct {
	key string
	n   int
}

// topCounts orders by count desc then key asc and keeps the first topN.
func topCounts(counts map[string]int) []keyCount {
	out := make([]keyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, keyCount{key: k, n: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Load replaces the in-memory window with the contents of dataFile, if it exists.
func (s *Service) Load() error {
	if s.dataFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.dataFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read analytics file: %w", err)
	}

	var events []model.MatchEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("failed to unmarshal analytics data: %w", err)
	}
	if len(events) > s.maxEvents {
		events = events[len(events)-s.maxEvents:]
	}

	s.mu.Lock()
	s.events = events
	if len(events) > 0 {
		s.since = events[0].Timestamp
	}
	s.mu.Unlock()

	logging.L().Info("analytics restored", zap.Int("events", len(events)), zap.String("file", s.dataFile))
	return nil
}

// Flush writes the current window to dataFile.
func (s *Service) Flush() error {
	if s.dataFile == "" {
		return nil
	}

	s.mu.RLock()
	data, err := json.Marshal(s.events)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal analytics data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.dataFile), 0o755); err != nil {
		return fmt.Errorf("failed to create analytics directory: %w", err)
	}
	if err := os.WriteFile(s.dataFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write analytics file: %w", err)
	}
	return nil
}
