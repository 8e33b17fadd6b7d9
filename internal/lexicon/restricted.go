package lexicon

import "strings"

// DefaultRestrictedRoots are the profanity roots matched as substrings.
var DefaultRestrictedRoots = []string{
	"хуй", "хуе", "хуё", "хуя",
	"пизд",
	"бляд", "блят",
	"ебал", "ебан", "ебат", "ёбан", "заеб", "уеб", "выеб",
	"сука", "суки", "сучк",
	"мудак", "мудил",
	"пидор", "пидар",
	"залуп",
	"гандон",
	"дерьм", "говн",
}

// Restricted is a fixed set of root substrings forming one lexical class.
type Restricted struct {
	roots []string
}

// NewRestricted builds the class from roots; an empty list falls back to
// DefaultRestrictedRoots.
func NewRestricted(roots []string) *Restricted {
	if len(roots) == 0 {
		roots = DefaultRestrictedRoots
	}
	r := &Restricted{}
	for _, root := range roots {
		root = strings.ToLower(strings.TrimSpace(root))
		if root != "" {
			r.roots = append(r.roots, root)
		}
	}
	return r
}

// Match reports whether word contains one of the roots.
func (r *Restricted) Match(word string) bool {
	if r == nil {
		return false
	}
	w := strings.ToLower(word)
	for _, root := range r.roots {
		if strings.Contains(w, root) {
			return true
		}
	}
	return false
}

// Count returns how many tokens of text belong to the class.
func (r *Restricted) Count(text string) int {
	n := 0
	for _, tok := range Tokenize(text) {
		if r.Match(tok) {
			n++
		}
	}
	return n
}

// Roots returns a copy of the configured roots.
func (r *Restricted) Roots() []string {
	return append([]string(nil), r.roots...)
}
