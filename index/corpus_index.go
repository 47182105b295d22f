package index

import (
	"slices"
	"time"

	"github.com/gcbaptista/what-can-i-cook/internal/normalizer"
	"github.com/gcbaptista/what-can-i-cook/model"
)

// Entry is one indexed recipe together with its deduplicated ingredient tokens.
// Tokens[i] was derived from RawNames[i], the first raw occurrence of that token
// in the recipe's declared order.
type Entry struct {
	Recipe   *model.Recipe
	Tokens   []normalizer.Token
	RawNames []string
}

// Total returns the recipe's distinct normalized ingredient count. It is never zero
// for an indexed entry.
func (e *Entry) Total() int {
	return len(e.Tokens)
}

// BuildStats summarizes what Build kept and what it dropped.
type BuildStats struct {
	Recipes           int           `json:"recipes"`
	Tokens            int           `json:"tokens"`
	SkippedEmpty      int           `json:"skipped_empty"`
	SkippedInvalid    int           `json:"skipped_invalid"`
	SkippedDuplicate  int           `json:"skipped_duplicate"`
	MergedIngredients int           `json:"merged_ingredients"`
	BuildDuration     time.Duration `json:"build_duration_ns"`
}

// CorpusIndex maps a normalized ingredient token to the recipes that use it.
//
// A CorpusIndex is immutable once Build returns: it is safe for any number of
// concurrent readers and is replaced wholesale, never patched, when the corpus changes.
type CorpusIndex struct {
	entries  []Entry
	postings map[normalizer.Token]PostingList
	byID     map[string]uint32
	stats    BuildStats
}

// Build indexes a full recipe snapshot.
//
// Recipes without an id, repeats of an id already seen, and recipes left with no
// ingredients after normalization are excluded. Within a recipe, ingredients that
// normalize to the same token are merged and the first raw spelling is kept.
func Build(recipes []model.Recipe) *CorpusIndex {
	start := time.Now()

	ci := &CorpusIndex{
		entries:  make([]Entry, 0, len(recipes)),
		postings: make(map[normalizer.Token]PostingList),
		byID:     make(map[string]uint32, len(recipes)),
	}

	for i := range recipes {
		recipe := recipes[i].Clone()

		if recipe.ID == "" {
			ci.stats.SkippedInvalid++
			continue
		}
		if _, dup := ci.byID[recipe.ID]; dup {
			ci.stats.SkippedDuplicate++
			continue
		}

		seen := make(normalizer.Set, len(recipe.Ingredients))
		tokens := make([]normalizer.Token, 0, len(recipe.Ingredients))
		rawNames := make([]string, 0, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			token := normalizer.Normalize(ing.Name)
			if token.IsEmpty() {
				continue
			}
			if !seen.Add(token) {
				ci.stats.MergedIngredients++
				continue
			}
			tokens = append(tokens, token)
			rawNames = append(rawNames, ing.Name)
		}

		if len(tokens) == 0 {
			ci.stats.SkippedEmpty++
			continue
		}

		ordinal := uint32(len(ci.entries))
		ci.entries = append(ci.entries, Entry{
			Recipe:   &recipe,
			Tokens:   tokens,
			RawNames: rawNames,
		})
		ci.byID[recipe.ID] = ordinal
		for _, token := range tokens {
			ci.postings[token] = append(ci.postings[token], ordinal)
		}
	}

	ci.stats.Recipes = len(ci.entries)
	ci.stats.Tokens = len(ci.postings)
	ci.stats.BuildDuration = time.Since(start)
	return ci
}

// Candidates returns, in ascending ordinal order, every recipe sharing at least one
// token with owned. Recipes with no overlap are never returned.
func (ci *CorpusIndex) Candidates(owned normalizer.Set) []uint32 {
	if len(owned) == 0 || len(ci.entries) == 0 {
		return []uint32{}
	}

	seen := make(map[uint32]struct{})
	candidates := make([]uint32, 0)
	for token := range owned {
		for _, ordinal := range ci.postings[token] {
			if _, ok := seen[ordinal]; ok {
				continue
			}
			seen[ordinal] = struct{}{}
			candidates = append(candidates, ordinal)
		}
	}

	slices.Sort(candidates)
	return candidates
}

// Entry returns the indexed recipe for an ordinal produced by Candidates.
func (ci *CorpusIndex) Entry(ordinal uint32) *Entry {
	return &ci.entries[ordinal]
}

// Lookup finds an indexed recipe by its id.
func (ci *CorpusIndex) Lookup(id string) (*model.Recipe, bool) {
	ordinal, ok := ci.byID[id]
	if !ok {
		return nil, false
	}
	return ci.entries[ordinal].Recipe, true
}

// Postings returns the posting list for a single token.
func (ci *CorpusIndex) Postings(token normalizer.Token) PostingList {
	return ci.postings[token]
}

// Len returns the number of indexed recipes.
func (ci *CorpusIndex) Len() int {
	return len(ci.entries)
}

// TokenCount returns the number of distinct ingredient tokens in the corpus.
func (ci *CorpusIndex) TokenCount() int {
	return len(ci.postings)
}

// Stats returns the figures recorded while building.
func (ci *CorpusIndex) Stats() BuildStats {
	return ci.stats
}
