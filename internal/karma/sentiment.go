package karma

import "github.com/keshon/moodbot/internal/lexicon"

// Per-message mood deltas.
const (
	RestrictedPenalty = -15
	CourtesyBonus     = 10
	MaxMessageDelta   = 50
)

var courtesyStems = func() lexicon.StemSet {
	set := make(lexicon.StemSet)
	for _, w := range []string{
		"спасибо", "пожалуйста", "благодарю", "молодец", "умница",
		"люблю", "обожаю", "прекрасно", "отлично", "здорово", "круто",
		"thanks", "please",
	} {
		set[lexicon.Stem(w)] = struct{}{}
	}
	return set
}()

// SentimentDelta estimates how a message moves the chat mood: restricted
// words push it down, courtesy words push it up. The result is within
// ±MaxMessageDelta.
func SentimentDelta(text string, restricted *lexicon.Restricted) int {
	delta := 0
	for _, tok := range lexicon.Tokenize(text) {
		switch {
		case restricted.Match(tok):
			delta += RestrictedPenalty
		case courtesyStems.Has(lexicon.Stem(tok)):
			delta += CourtesyBonus
		}
	}
	if delta > MaxMessageDelta {
		return MaxMessageDelta
	}
	if delta < -MaxMessageDelta {
		return -MaxMessageDelta
	}
	return delta
}
