package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keshon/moodbot/internal/lexicon"
)

func TestScore(t *testing.T) {
	restricted := lexicon.NewRestricted(nil)
	stems := lexicon.Stems("говно кошки")

	tests := []struct {
		name   string
		scorer Scorer
		word   string
		want   float64
	}{
		{"plain word", Scorer{Restricted: restricted, Enabled: true, Multiplier: 1}, "дом", 0},
		{"stem match", Scorer{Restricted: restricted, Enabled: true, Multiplier: 1}, "кошка", 2},
		{"restricted disabled ignores stem match", Scorer{Restricted: restricted, Enabled: false, Multiplier: 3}, "говно", Excluded},
		{"restricted disabled", Scorer{Restricted: restricted}, "мудак", Excluded},
		{"restricted enabled", Scorer{Restricted: restricted, Enabled: true, Multiplier: 3}, "мудак", 6},
		{"restricted enabled and matched", Scorer{Restricted: restricted, Enabled: true, Multiplier: 1}, "говно", 4},
		{"restricted zero multiplier", Scorer{Restricted: restricted, Enabled: true}, "мудак", 0},
		{"nil restricted", Scorer{}, "говно", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scorer.Score(tt.word, nil, stems))
		})
	}
}

func TestWithMultiplier(t *testing.T) {
	s := Scorer{Enabled: true, Multiplier: 1}
	assert.Equal(t, 2.5, s.WithMultiplier(2.5).Multiplier)
	assert.Equal(t, 0.0, s.WithMultiplier(-1).Multiplier)
	assert.Equal(t, 1.0, s.Multiplier)
}

func TestScorerSatisfiesCache(t *testing.T) {
	var _ lexicon.Scorer = Scorer{}
}
