// Package lexicon holds the learned vocabulary: tokenization and stemming of
// chat text, the restricted lexical class and the process-wide Lexical Cache.
package lexicon

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// StemLanguage is the snowball algorithm used for every stem.
const StemLanguage = "russian"

// StemSet is a set of stems.
type StemSet map[string]struct{}

// Has reports whether stem is in the set.
func (s StemSet) Has(stem string) bool {
	_, ok := s[stem]
	return ok
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case unicode.Is(unicode.Cyrillic, r):
		return true
	case unicode.IsDigit(r):
		return true
	}
	return false
}

// Tokenize case-folds text and splits it on every rune outside the word
// alphabet (latin, cyrillic, digits).
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})
}

// Stem reduces a token to its stem. Tokens the stemmer rejects are returned
// unchanged.
func Stem(token string) string {
	stemmed, err := snowball.Stem(token, StemLanguage, true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// Stems tokenizes text and stems every token.
func Stems(text string) StemSet {
	set := make(StemSet)
	for _, tok := range Tokenize(text) {
		set[Stem(tok)] = struct{}{}
	}
	return set
}

// Distinct returns the tokens of text in first-seen order without repeats.
func Distinct(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokenize(text) {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
