package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/gcbaptista/what-can-i-cook/internal/testing"
	"github.com/gcbaptista/what-can-i-cook/model"
)

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := runCLI(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestMatchCommand_Table(t *testing.T) {
	path := testutil.WriteRecipesFile(t, testutil.SampleRecipes())

	code, out, errOut := run("match", "--corpus", path, "--min", "50", "chicken", "rice")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "MATCH")
	assert.Contains(t, out, "Chicken Fried Rice")
	assert.Contains(t, out, "Onion")
	assert.NotContains(t, out, "Omelette")
}

func TestMatchCommand_JSON(t *testing.T) {
	path := testutil.WriteRecipesFile(t, testutil.SampleRecipes())

	code, out, errOut := run("match", "--corpus", path, "--min", "50", "--json", "-n", "2", "Chicken", "RICE")
	require.Equal(t, 0, code, errOut)

	var results []model.MatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "r1", results[0].RecipeID)
	assert.Equal(t, []string{"Onion"}, results[0].MissingIngredients)
}

func TestMatchCommand_NoResults(t *testing.T) {
	path := testutil.WriteRecipesFile(t, testutil.SampleRecipes())

	code, out, _ := run("match", "--corpus", path, "saffron")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No recipes match.")
}

func TestMatchCommand_Errors(t *testing.T) {
	path := testutil.WriteRecipesFile(t, testutil.SampleRecipes())

	tests := []struct {
		name string
		args []string
	}{
		{"missing corpus flag", []string{"match", "egg"}},
		{"no ingredients", []string{"match", "--corpus", path}},
		{"unreadable corpus", []string{"match", "--corpus", path + ".missing", "egg"}},
		{"threshold out of range", []string{"match", "--corpus", path, "--min", "101", "egg"}},
		{"blank ingredients", []string{"match", "--corpus", path, " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := run(tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, errOut, "error:")
		})
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("WCIC_APP_VERSION", "9.9.9")

	code, out, errOut := run("version")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "what-can-i-cook v9.9.9\n", out)
}
