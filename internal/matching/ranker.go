package matching

import (
	"slices"
	"strings"

	"github.com/gcbaptista/what-can-i-cook/model"
)

// Percentage returns 100 * matched / total. total must be positive.
func Percentage(matched, total int) float64 {
	return 100 * float64(matched) / float64(total)
}

// MeetsThreshold reports whether matched/total reaches threshold percent.
// The comparison is done in integers so a recipe sitting exactly on the threshold
// is never lost to floating point rounding. A recipe with no matched ingredient
// never qualifies, not even at threshold 0.
func MeetsThreshold(matched, total, threshold int) bool {
	if matched == 0 || total <= 0 {
		return false
	}
	return matched*100 >= threshold*total
}

// Rank filters scored candidates by threshold and orders them by match percentage
// desc, matched count desc, case-insensitive name asc, then id asc. The order is
// total, so identical input always yields identical output.
func Rank(scored []Scored, threshold int) []model.MatchResult {
	kept := make([]Scored, 0, len(scored))
	for _, s := range scored {
		if MeetsThreshold(s.Score.Matched, s.Score.Total, threshold) {
			kept = append(kept, s)
		}
	}

	slices.SortFunc(kept, compare)

	results := make([]model.MatchResult, len(kept))
	for i, s := range kept {
		// Results own their recipe; the indexed one is shared by every query.
		recipe := s.Entry.Recipe.Clone()
		results[i] = model.MatchResult{
			RecipeID:                recipe.ID,
			Recipe:                  &recipe,
			MatchPercentage:         Percentage(s.Score.Matched, s.Score.Total),
			MatchedIngredientsCount: s.Score.Matched,
			TotalIngredientsCount:   s.Score.Total,
			MatchedIngredients:      s.Score.MatchedNames,
			MissingIngredients:      s.Score.MissingNames,
		}
	}
	return results
}

func compare(a, b Scored) int {
	switch {
	case less(a, b):
		return -1
	case less(b, a):
		return 1
	}
	return 0
}

func less(a, b Scored) bool {
	// a.m/a.t > b.m/b.t  <=>  a.m*b.t > b.m*a.t
	lhs := a.Score.Matched * b.Score.Total
	rhs := b.Score.Matched * a.Score.Total
	if lhs != rhs {
		return lhs > rhs
	}
	if a.Score.Matched != b.Score.Matched {
		return a.Score.Matched > b.Score.Matched
	}
	nameA := strings.ToLower(a.Entry.Recipe.Name)
	nameB := strings.ToLower(b.Entry.Recipe.Name)
	if nameA != nameB {
		return nameA < nameB
	}
	return a.Entry.Recipe.ID < b.Entry.Recipe.ID
}
