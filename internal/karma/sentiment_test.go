package karma

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/moodbot/internal/lexicon"
)

func TestSentimentDelta(t *testing.T) {
	r := lexicon.NewRestricted(nil)

	assert.Equal(t, 0, SentimentDelta("обычное сообщение", r))
	assert.Equal(t, CourtesyBonus, SentimentDelta("Спасибо!", r))
	assert.Equal(t, RestrictedPenalty, SentimentDelta("ну ты мудак", r))
	assert.Equal(t, CourtesyBonus+RestrictedPenalty, SentimentDelta("спасибо, мудак", r))
	assert.Equal(t, -MaxMessageDelta, SentimentDelta("говно говно говно говно говно", r))
	assert.Equal(t, MaxMessageDelta, SentimentDelta("спасибо спасибо спасибо спасибо спасибо спасибо", r))
}
