package response

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/keshon/moodbot/internal/chance"
)

// Terminals are the punctuation marks a reply may end with.
var Terminals = []string{".", "!", "...", "?"}

// Surface joins words into a sentence: first letter capitalized and one
// random terminal mark appended.
func Surface(words []string, rnd chance.Source) string {
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		return ""
	}
	text = strings.TrimRight(text, ".!?… ")
	return capitalize(text) + chance.Pick(rnd, Terminals)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
