package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcbaptista/what-can-i-cook/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSource_FetchAll(t *testing.T) {
	path := writeFile(t, `[
		{"id": "r1", "name": "Fried Rice", "ingredients": [{"name": "Rice"}, {"name": "Egg", "measure": "2"}]},
		{"id": "r2", "name": "Toast", "ingredients": [{"name": "Bread"}]}
	]`)

	source := NewSource(path)
	recipes, err := source.FetchAll(context.Background())
	require.NoError(t, err)

	require.Len(t, recipes, 2)
	assert.Equal(t, "Fried Rice", recipes[0].Name)
	assert.Equal(t, []string{"Rice", "Egg"}, recipes[0].IngredientNames())
	assert.Equal(t, "2", recipes[0].Ingredients[1].Measure)
	assert.Equal(t, "file:"+path, source.Name())
}

func TestSource_FetchAll_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.json") }},
		{"not an array", func(t *testing.T) string { return writeFile(t, `{"id": "r1"}`) }},
		{"malformed", func(t *testing.T) string { return writeFile(t, `[{"id": `) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource(tt.path(t)).FetchAll(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)
		})
	}
}

func TestSource_FetchAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(writeFile(t, `[]`)).FetchAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
