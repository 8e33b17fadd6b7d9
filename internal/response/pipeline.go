// Package response turns an incoming utterance into the bot's reply and
// feeds observed messages back into vocabulary and mood.
package response

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keshon/moodbot/internal/ai"
	"github.com/keshon/moodbot/internal/assembly"
	"github.com/keshon/moodbot/internal/chance"
	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/lexicon"
	"github.com/keshon/moodbot/internal/relevance"
	"github.com/keshon/moodbot/internal/storage"
)

// Placeholder is returned when generation fails outright.
const Placeholder = "..."

// styleSamples is how many recent phrases are offered to the polisher.
const styleSamples = 5

// Vocabulary is the Lexical Cache as the pipeline sees it.
type Vocabulary interface {
	RefreshIfStale(ctx context.Context) error
	RelevantWords(input string, scorer lexicon.Scorer) map[string]float64
	Words() []string
	Successors(word string) []string
	Invalidate()
}

// Moods is the Karma Engine as the pipeline sees it.
type Moods interface {
	Profile(ctx context.Context, chatID string) (int, karma.Band)
	Update(ctx context.Context, chatID string, delta int) (karma.Result, error)
	Reset(ctx context.Context, chatID string) error
}

// Polisher is the text polishing collaborator.
type Polisher interface {
	Polish(ctx context.Context, text string, style ai.Style) (string, error)
}

// History is the part of the Store Adapter used for learning and style.
type History interface {
	SaveMessage(ctx context.Context, msg storage.MessageRecord, words []storage.WordRecord) error
	FetchRecentPhrases(ctx context.Context, chatID string, limit int) ([]string, error)
}

// Options tune a Pipeline.
type Options struct {
	Restricted        *lexicon.Restricted
	RestrictedEnabled bool
	// RestrictedChance is the base percent chance per sentence.
	RestrictedChance     int
	RestrictedMultiplier float64
	SuccessorBias        float64
	// EscalationThreshold is the band floor at or below which replies are
	// escalated.
	EscalationThreshold int
	// PolishChance is the percent of replies sent to the polisher.
	PolishChance int
}

// Pipeline composes the cache, scorer, assembler and karma engine.
// It is safe for concurrent use.
type Pipeline struct {
	vocab     Vocabulary
	moods     Moods
	history   History
	polisher  Polisher
	rnd       chance.Source
	scorer    relevance.Scorer
	assembler *assembly.Assembler
	opts      Options
	log       zerolog.Logger
}

// New wires a Pipeline. polisher may be nil.
func New(vocab Vocabulary, moods Moods, history History, polisher Polisher, rnd chance.Source, opts Options, log zerolog.Logger) *Pipeline {
	if rnd == nil {
		rnd = chance.New()
	}
	if opts.Restricted == nil {
		opts.Restricted = lexicon.NewRestricted(nil)
	}
	return &Pipeline{
		vocab:    vocab,
		moods:    moods,
		history:  history,
		polisher: polisher,
		rnd:      rnd,
		scorer: relevance.Scorer{
			Restricted: opts.Restricted,
			Enabled:    opts.RestrictedEnabled,
			Multiplier: opts.RestrictedMultiplier,
		},
		assembler: assembly.New(rnd, assembly.Options{
			Restricted:        opts.Restricted,
			RestrictedEnabled: opts.RestrictedEnabled,
			RestrictedChance:  opts.RestrictedChance,
			SuccessorBias:     opts.SuccessorBias,
		}),
		opts: opts,
		log:  log,
	}
}

// GenerateResponse builds the reply to input in chatID. It always returns a
// non-empty string.
func (p *Pipeline) GenerateResponse(ctx context.Context, chatID, input string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("chat", chatID).Msg("response generation panicked")
			reply = Placeholder
		}
		if strings.TrimSpace(reply) == "" {
			reply = Placeholder
		}
	}()

	if err := p.vocab.RefreshIfStale(ctx); err != nil {
		p.log.Warn().Err(err).Msg("using previous vocabulary")
	}

	value, band := p.moods.Profile(ctx, chatID)
	bias := band.Tone.RestrictedBias()

	scores := p.vocab.RelevantWords(input, p.scorer.WithMultiplier(p.scorer.Multiplier*bias))
	sentence := p.assembler.Assemble(assembly.Input{
		Scores:     scores,
		Tone:       band.Tone,
		Vocabulary: p.vocab.Words(),
		Successors: p.vocab.Successors,
	})

	text := Surface(sentence.Words, p.rnd)
	escalated := band.Floor <= p.opts.EscalationThreshold
	if escalated {
		text = Escalate(text, p.rnd)
	}

	p.log.Debug().
		Str("chat", chatID).
		Int("mood", value).
		Str("band", band.Name).
		Bool("fallback", sentence.Fallback).
		Bool("restricted", sentence.Restricted).
		Bool("escalated", escalated).
		Msg("sentence assembled")

	return p.polish(ctx, chatID, text, band, escalated)
}

// polish forwards text to the polisher and returns text unchanged on any
// failure.
func (p *Pipeline) polish(ctx context.Context, chatID, text string, band karma.Band, escalated bool) string {
	if p.polisher == nil || !chance.Percent(p.rnd, p.opts.PolishChance) {
		return text
	}

	style := ai.Style{Mood: band.Name, Traits: band.Traits, Samples: p.samples(ctx, chatID)}
	polished, err := p.polisher.Polish(ctx, text, style)
	if err != nil {
		p.log.Debug().Err(err).Str("chat", chatID).Msg("polish skipped")
		return text
	}
	if !p.opts.RestrictedEnabled && p.opts.Restricted.Count(polished) > 0 {
		p.log.Debug().Str("chat", chatID).Msg("polish introduced restricted words, discarded")
		return text
	}
	if escalated {
		// the model tends to soften; keep the escalated surface
		polished = Harden(polished)
		if !containsAny(polished, HostileEmoji) {
			polished = chance.Pick(p.rnd, HostileEmoji) + " " + polished
		}
	}
	return polished
}

func (p *Pipeline) samples(ctx context.Context, chatID string) []string {
	if p.history == nil {
		return nil
	}
	phrases, err := p.history.FetchRecentPhrases(ctx, chatID, styleSamples)
	if err != nil {
		p.log.Debug().Err(err).Str("chat", chatID).Msg("style samples unavailable")
		return nil
	}
	return phrases
}

// UpdateMood applies delta to the mood of chatID. Storage errors are returned.
func (p *Pipeline) UpdateMood(ctx context.Context, chatID string, delta int) (karma.Result, error) {
	return p.moods.Update(ctx, chatID, delta)
}
