package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/lexicon"
)

// script replays fixed random values; exhausted queues yield zero.
type script struct {
	ints   []int
	floats []float64
}

func (s *script) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *script) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

var restricted = lexicon.NewRestricted(nil)

func scoresOf(words ...string) map[string]float64 {
	m := make(map[string]float64, len(words))
	for _, w := range words {
		m[w] = 0
	}
	return m
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestAssembleNeverUsesRestrictedWhenDisabled(t *testing.T) {
	scores := scoresOf("кот", "спит", "дом", "окно", "чай", "лес")
	scores["говно"] = -1
	scores["мудак"] = 0 // even a scorer that forgot to exclude it

	for seed := int64(0); seed < 300; seed++ {
		a := New(chance.NewSeeded(seed), Options{Restricted: restricted, RestrictedChance: 100})
		s := a.Assemble(Input{Scores: scores, Tone: karma.Hostile, Vocabulary: keys(scores)})
		for _, w := range s.Words {
			assert.False(t, restricted.Match(w), "seed %d produced %q", seed, w)
		}
		assert.False(t, s.Restricted)
	}
}

func TestAssembleLengthAndNoRepeats(t *testing.T) {
	scores := scoresOf("а1", "б2", "в3", "г4", "д5", "е6", "ж7", "з8", "и9")
	for seed := int64(0); seed < 200; seed++ {
		a := New(chance.NewSeeded(seed), Options{Restricted: restricted})
		s := a.Assemble(Input{Scores: scores, Tone: karma.Normal})
		require.False(t, s.Fallback)
		assert.GreaterOrEqual(t, len(s.Words), MinWords)
		assert.LessOrEqual(t, len(s.Words), MaxWords)

		seen := map[string]bool{}
		for _, w := range s.Words {
			assert.False(t, seen[w], "repeated %q", w)
			seen[w] = true
		}
	}
}

func TestAssembleExactWithScript(t *testing.T) {
	scores := scoresOf("а", "б", "в", "г")
	rnd := &script{
		floats: []float64{0.1},       // uniform start
		ints:   []int{2, 0, 1, 0, 0}, // start=в, target=3, next=б (of а,б,г), next=а
	}
	a := New(rnd, Options{Restricted: restricted})
	s := a.Assemble(Input{Scores: scores, Tone: karma.Normal})
	assert.Equal(t, []string{"в", "б", "а"}, s.Words)
}

// ranked always takes the relevance-ordered path
type ranked struct{ chance.Source }

func (ranked) Float64() float64 { return 0.95 }

func TestAssembleRankedStart(t *testing.T) {
	scores := map[string]float64{"а": 0, "б": 2, "в": 0, "г": 2, "д": 2, "е": 0, "ж": 2, "з": 2, "и": 2}
	top := map[string]bool{"б": true, "г": true, "д": true, "ж": true, "з": true, "и": true}

	starts := map[string]bool{}
	for seed := int64(1); seed <= 300; seed++ {
		a := New(ranked{chance.NewSeeded(seed)}, Options{Restricted: restricted})
		s := a.Assemble(Input{Scores: scores, Tone: karma.Normal})
		require.True(t, top[s.Words[0]], "start %q is not a top word", s.Words[0])
		starts[s.Words[0]] = true
	}
	// six words tie for five slots, so each of them has to show up
	assert.Equal(t, top, starts)
}

func TestAssembleFallsBackOnTooFewCandidates(t *testing.T) {
	a := New(chance.NewSeeded(1), Options{Restricted: restricted})

	s := a.Assemble(Input{Scores: scoresOf("кот"), Vocabulary: []string{"кот"}})
	assert.True(t, s.Fallback)
	require.Len(t, s.Words, 3)
	assert.Equal(t, "кот", s.Words[2])

	// two candidates can never reach three words
	s = a.Assemble(Input{Scores: scoresOf("кот", "пёс"), Vocabulary: []string{"кот", "пёс"}})
	assert.True(t, s.Fallback)
	assert.Len(t, s.Words, 3)
}

func TestAssembleEmptyCacheApologizes(t *testing.T) {
	a := New(chance.NewSeeded(1), Options{Restricted: restricted})
	s := a.Assemble(Input{})
	assert.True(t, s.Fallback)
	assert.Equal(t, "Извини, мне пока нечего сказать", joinWords(s.Words))
}

func TestRestrictedChanceFollowsTone(t *testing.T) {
	a := New(chance.NewSeeded(1), Options{Restricted: restricted, RestrictedEnabled: true, RestrictedChance: 40})
	assert.Equal(t, 80, a.RestrictedChance(karma.Hostile))
	assert.Equal(t, 60, a.RestrictedChance(karma.Toxic))
	assert.Equal(t, 40, a.RestrictedChance(karma.Normal))
	assert.Equal(t, 20, a.RestrictedChance(karma.Warm))
	assert.Equal(t, 0, a.RestrictedChance(karma.Saintly))

	full := New(chance.NewSeeded(1), Options{Restricted: restricted, RestrictedEnabled: true, RestrictedChance: 90})
	assert.Equal(t, 100, full.RestrictedChance(karma.Hostile))

	off := New(chance.NewSeeded(1), Options{Restricted: restricted, RestrictedChance: 90})
	assert.Equal(t, 0, off.RestrictedChance(karma.Hostile))
}

func TestRestrictedAllowedForWholeSentence(t *testing.T) {
	scores := scoresOf("говно", "мудак", "гандон")
	a := New(chance.NewSeeded(3), Options{Restricted: restricted, RestrictedEnabled: true, RestrictedChance: 100})
	s := a.Assemble(Input{Scores: scores, Tone: karma.Normal})
	assert.True(t, s.Restricted)
	assert.False(t, s.Fallback)
	assert.ElementsMatch(t, []string{"говно", "мудак", "гандон"}, s.Words)

	s = a.Assemble(Input{Scores: scores, Tone: karma.Saintly, Vocabulary: keys(scores)})
	assert.False(t, s.Restricted)
	assert.True(t, s.Fallback)
	assert.Equal(t, Apology, joinWords(s.Words))
}

func TestSuccessorBias(t *testing.T) {
	scores := scoresOf("а", "б", "в", "г", "д", "е", "ж")
	chain := map[string][]string{"а": {"б"}, "б": {"в"}, "в": {"г"}, "г": {"д"}, "д": {"е"}, "е": {"ж"}}

	rnd := &script{floats: []float64{0.1}, ints: []int{0, 4}} // start=а, target=7
	a := New(rnd, Options{Restricted: restricted, SuccessorBias: 1})
	s := a.Assemble(Input{Scores: scores, Successors: func(w string) []string { return chain[w] }})
	assert.Equal(t, []string{"а", "б", "в", "г", "д", "е", "ж"}, s.Words)
}

func joinWords(ws []string) string {
	out := ""
	for i, w := range ws {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
