// Package relevance scores cached words against an incoming utterance.
package relevance

import "github.com/keshon/moodbot/internal/lexicon"

// Excluded is the score of a word that must never be selected.
const Excluded = -1

// Scorer applies the additive relevance rules. The zero value scores only
// stem matches.
type Scorer struct {
	Restricted *lexicon.Restricted
	// Enabled allows the restricted class at all. When false every
	// restricted word scores Excluded.
	Enabled bool
	// Multiplier boosts restricted words when they are enabled.
	Multiplier float64
}

// WithMultiplier returns a copy of s using m as the restricted multiplier.
func (s Scorer) WithMultiplier(m float64) Scorer {
	if m < 0 {
		m = 0
	}
	s.Multiplier = m
	return s
}

// Score rates word. Rules, in order:
//  1. restricted and disabled: Excluded, nothing else is evaluated
//  2. restricted and enabled: +2*Multiplier
//  3. stem of word among the input stems: +2
//
// A word matching none of them scores 0. Contexts are accepted so other
// scorers can use them; these rules do not.
func (s Scorer) Score(word string, _ []string, stems lexicon.StemSet) float64 {
	var score float64

	if s.Restricted.Match(word) {
		if !s.Enabled {
			return Excluded
		}
		score += 2 * s.Multiplier
	}

	if stems.Has(lexicon.Stem(word)) {
		score += 2
	}

	return score
}
