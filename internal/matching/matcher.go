// Package matching scores candidate recipes against an owned-ingredient set and
// ranks the results.
package matching

import (
	"github.com/gcbaptista/what-can-i-cook/index"
	"github.com/gcbaptista/what-can-i-cook/internal/normalizer"
)

// Score holds the match statistics of a single recipe.
type Score struct {
	Matched      int
	Total        int
	MatchedNames []string
	MissingNames []string
}

// Scored pairs an indexed recipe with its score.
type Scored struct {
	Entry *index.Entry
	Score Score
}

// ScoreEntry tests each deduplicated ingredient of the entry against owned.
// Raw names are reported in the recipe's declared order.
func ScoreEntry(entry *index.Entry, owned normalizer.Set) Score {
	score := Score{
		Total:        entry.Total(),
		MatchedNames: make([]string, 0, entry.Total()),
		MissingNames: make([]string, 0, entry.Total()),
	}
	for i, token := range entry.Tokens {
		if owned.Contains(token) {
			score.Matched++
			score.MatchedNames = append(score.MatchedNames, entry.RawNames[i])
		} else {
			score.MissingNames = append(score.MissingNames, entry.RawNames[i])
		}
	}
	return score
}

// ScoreCandidates scores only the recipes the index reports as sharing at least one
// token with owned, so cost follows the candidate count rather than corpus size.
func ScoreCandidates(ci *index.CorpusIndex, owned normalizer.Set) []Scored {
	candidates := ci.Candidates(owned)
	scored := make([]Scored, 0, len(candidates))
	for _, ordinal := range candidates {
		entry := ci.Entry(ordinal)
		scored = append(scored, Scored{Entry: entry, Score: ScoreEntry(entry, owned)})
	}
	return scored
}
