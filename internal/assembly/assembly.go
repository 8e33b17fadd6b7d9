// Package assembly builds short word sequences from scored vocabulary.
package assembly

import (
	"math"
	"sort"

	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/lexicon"
)

const (
	MinWords = 3
	MaxWords = 7

	// uniformStartChance is the probability of ignoring relevance when
	// picking the first word.
	uniformStartChance = 0.7
	topCandidates      = 5
)

// Options configure an Assembler.
type Options struct {
	Restricted        *lexicon.Restricted
	RestrictedEnabled bool
	// RestrictedChance is the percent chance that one sentence may use
	// restricted words. The tone bias scales it.
	RestrictedChance int
	// SuccessorBias is the probability of continuing with an observed
	// successor of the previous word. Zero keeps selection uniform.
	SuccessorBias float64
}

// Input is everything one sentence is built from.
type Input struct {
	Scores     map[string]float64
	Tone       karma.Tone
	Vocabulary []string
	// Successors is optional.
	Successors func(word string) []string
}

// Sentence is the assembled word sequence.
type Sentence struct {
	Words      []string
	Fallback   bool
	Restricted bool
}

// Assembler is safe for concurrent use when its chance.Source is.
type Assembler struct {
	rnd      chance.Source
	opts     Options
	fallback *Fallback
}

// New returns an Assembler drawing every random decision from rnd.
func New(rnd chance.Source, opts Options) *Assembler {
	return &Assembler{
		rnd:      rnd,
		opts:     opts,
		fallback: NewFallback(rnd, opts.Restricted),
	}
}

// RestrictedChance returns the effective percent chance for tone.
func (a *Assembler) RestrictedChance(tone karma.Tone) int {
	if !a.opts.RestrictedEnabled {
		return 0
	}
	p := int(math.Round(float64(a.opts.RestrictedChance) * tone.RestrictedBias()))
	if p > 100 {
		return 100
	}
	return p
}

// Assemble builds one sentence. It never returns an empty sentence.
func (a *Assembler) Assemble(in Input) Sentence {
	// one flip per sentence so the whole sentence agrees
	allowed := chance.Percent(a.rnd, a.RestrictedChance(in.Tone))

	candidates := a.filter(in.Scores, allowed)
	if len(candidates) < 2 {
		return a.fallbackSentence(in.Vocabulary, allowed)
	}

	used := make(map[string]bool, MaxWords)
	words := make([]string, 0, MaxWords)

	start := a.pickStart(candidates, in.Scores)
	words = append(words, start)
	used[start] = true

	target := a.rnd.Intn(MaxWords-MinWords+1) + MinWords
	for len(words) < target {
		next, ok := a.pickNext(candidates, used, words[len(words)-1], in.Successors)
		if !ok {
			break
		}
		words = append(words, next)
		used[next] = true
	}

	if len(words) < MinWords {
		return a.fallbackSentence(in.Vocabulary, allowed)
	}
	return Sentence{Words: words, Restricted: allowed}
}

func (a *Assembler) fallbackSentence(vocabulary []string, allowed bool) Sentence {
	return Sentence{Words: a.fallback.Generate(vocabulary, allowed), Fallback: true, Restricted: allowed}
}

// filter drops excluded words, and restricted words unless allowed. The
// result is sorted so map iteration order never leaks into the output.
func (a *Assembler) filter(scores map[string]float64, allowed bool) []string {
	out := make([]string, 0, len(scores))
	for w, s := range scores {
		if s < 0 {
			continue
		}
		if !allowed && a.opts.Restricted.Match(w) {
			continue
		}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func (a *Assembler) pickStart(candidates []string, scores map[string]float64) string {
	if a.rnd.Float64() < uniformStartChance {
		return chance.Pick(a.rnd, candidates)
	}

	// shuffled first so equal scores are cut at random, not alphabetically
	ranked := append([]string(nil), candidates...)
	chance.Shuffle(a.rnd, ranked)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i]] > scores[ranked[j]]
	})
	if len(ranked) > topCandidates {
		ranked = ranked[:topCandidates]
	}
	return chance.Pick(a.rnd, ranked)
}

func (a *Assembler) pickNext(candidates []string, used map[string]bool, prev string, successors func(string) []string) (string, bool) {
	if successors != nil && a.opts.SuccessorBias > 0 && a.rnd.Float64() < a.opts.SuccessorBias {
		allowed := make(map[string]bool, len(candidates))
		for _, c := range candidates {
			allowed[c] = true
		}
		var follow []string
		for _, s := range successors(prev) {
			if allowed[s] && !used[s] {
				follow = append(follow, s)
			}
		}
		if len(follow) > 0 {
			return chance.Pick(a.rnd, follow), true
		}
	}

	unused := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !used[c] {
			unused = append(unused, c)
		}
	}
	if len(unused) == 0 {
		return "", false
	}
	return chance.Pick(a.rnd, unused), true
}
