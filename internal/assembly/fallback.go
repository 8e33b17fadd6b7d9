package assembly

import (
	"strings"

	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/lexicon"
)

var openings = []string{
	"Ну и",
	"А вот",
	"Вот это",
	"Как же",
	"Слушай, опять",
	"Знаешь, это",
}

// Apology is the sentence used when there is no vocabulary at all.
const Apology = "Извини, мне пока нечего сказать"

// Fallback produces a short sentence that cannot fail: a fixed opening plus
// one random known word, or Apology when no word is usable.
type Fallback struct {
	rnd        chance.Source
	restricted *lexicon.Restricted
}

// NewFallback returns a generator drawing from rnd.
func NewFallback(rnd chance.Source, restricted *lexicon.Restricted) *Fallback {
	return &Fallback{rnd: rnd, restricted: restricted}
}

// Generate builds the fallback sentence. Restricted words are only drawn when
// allowRestricted is set.
func (f *Fallback) Generate(vocabulary []string, allowRestricted bool) []string {
	usable := make([]string, 0, len(vocabulary))
	for _, w := range vocabulary {
		if w == "" {
			continue
		}
		if !allowRestricted && f.restricted.Match(w) {
			continue
		}
		usable = append(usable, w)
	}
	if len(usable) == 0 {
		return strings.Fields(Apology)
	}

	opening := chance.Pick(f.rnd, openings)
	word := chance.Pick(f.rnd, usable)
	return append(strings.Fields(opening), word)
}
