// Package normalizer canonicalizes raw ingredient strings into comparable tokens.
//
// Matching operates on token identity only: "Chicken Breast", "chicken breast" and
// " chicken  breast " all map to the same Token. Stemming, plural folding and synonym
// tables ("scallion" vs "green onion") are intentionally not applied.
package normalizer

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Token is the canonical form of an ingredient name.
type Token string

// Empty is produced for input that is blank after trimming. It never matches anything
// and is dropped from both recipe ingredient lists and owned-ingredient sets.
const Empty Token = ""

// IsEmpty reports whether t is the Empty sentinel.
func (t Token) IsEmpty() bool {
	return t == Empty
}

// String returns the token text.
func (t Token) String() string {
	return string(t)
}

// Normalize trims, lower-cases and collapses internal whitespace runs to a single space.
// The result is NFC-composed so precomposed and decomposed spellings compare equal.
func Normalize(raw string) Token {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Empty
	}
	joined := strings.ToLower(strings.Join(fields, " "))
	return Token(norm.NFC.String(joined))
}

// Set is a collection of distinct non-empty tokens.
type Set map[Token]struct{}

// NewSet normalizes every raw string and collects the distinct non-empty tokens.
func NewSet(raws []string) Set {
	set := make(Set, len(raws))
	for _, raw := range raws {
		set.Add(Normalize(raw))
	}
	return set
}

// Add inserts t unless it is Empty. It reports whether the set grew.
func (s Set) Add(t Token) bool {
	if t.IsEmpty() {
		return false
	}
	if _, exists := s[t]; exists {
		return false
	}
	s[t] = struct{}{}
	return true
}

// Contains reports whether t is in the set.
func (s Set) Contains(t Token) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of tokens.
func (s Set) Len() int {
	return len(s)
}

// Tokens returns the set members in a stable, sorted order.
func (s Set) Tokens() []Token {
	tokens := make([]Token, 0, len(s))
	for t := range s {
		tokens = append(tokens, t)
	}
	slices.Sort(tokens)
	return tokens
}

// Strings is like Tokens but returns plain strings, handy for logging and analytics.
func (s Set) Strings() []string {
	tokens := s.Tokens()
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}
