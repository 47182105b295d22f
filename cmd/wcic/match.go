package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/what-can-i-cook/internal/engine"
	"github.com/gcbaptista/what-can-i-cook/internal/source/file"
	"github.com/gcbaptista/what-can-i-cook/model"
)

type matchOptions struct {
	corpus  string
	min     int
	limit   int
	jsonOut bool
}

func newMatchCmd() *cobra.Command {
	opts := &matchOptions{}
	cmd := &cobra.Command{
		Use:   "match [ingredients...]",
		Short: "Rank recipes from a local corpus file",
		Long:  "Build an index from a JSON array of recipes and rank them against the given ingredients.",
		Example: `  wcic match --corpus recipes.json chicken rice onion
  wcic match --corpus recipes.json --min 50 --json egg butter`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.corpus, "corpus", "", "JSON file with the recipe corpus (required)")
	f.IntVar(&opts.min, "min", 30, "Minimum match percentage (0-100)")
	f.IntVarP(&opts.limit, "limit", "n", 0, "Limit number of results (0 = all)")
	f.BoolVar(&opts.jsonOut, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runMatch(cmd *cobra.Command, opts *matchOptions, ingredients []string) error {
	eng := engine.NewEngine(engine.Options{
		Source:     file.NewSource(opts.corpus),
		MaxResults: opts.limit,
	})
	defer eng.Close()

	if _, err := eng.Rebuild(cmd.Context(), true); err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	results, err := eng.FindMatches(model.MatchRequest{
		OwnedIngredients:   ingredients,
		MinMatchPercentage: opts.min,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return printResults(out, results)
}

func printResults(w io.Writer, results []model.MatchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No recipes match.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MATCH\tHAVE\tRECIPE\tMISSING")
	for _, r := range results {
		name := r.RecipeID
		if r.Recipe != nil {
			name = r.Recipe.Name
		}
		fmt.Fprintf(tw, "%5.1f%%\t%d/%d\t%s\t%s\n",
			r.MatchPercentage, r.MatchedIngredientsCount, r.TotalIngredientsCount,
			name, strings.Join(r.MissingIngredients, ", "))
	}
	return tw.Flush()
}
