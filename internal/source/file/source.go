// Package file loads a recipe corpus from a JSON file on disk.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/internal/errors"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/model"
)

// Source reads a JSON array of recipes. The file is re-read on every FetchAll so
// edits are picked up by the next rebuild.
type Source struct {
	path string
}

// NewSource creates a file source for path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Name implements services.CorpusSource.
func (s *Source) Name() string {
	return "file:" + s.path
}

// FetchAll implements services.CorpusSource.
func (s *Source) FetchAll(ctx context.Context) ([]model.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewSourceError(s.Name(), "read", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.NewSourceError(s.Name(), "read", err)
	}

	var recipes []model.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, errors.NewSourceError(s.Name(), "decode", fmt.Errorf("expected a JSON array of recipes: %w", err))
	}

	logging.L().Debug("loaded recipes from file", zap.String("path", s.path), zap.Int("recipes", len(recipes)))
	return recipes, nil
}
