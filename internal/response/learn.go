package response

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/moodbot/internal/karma"
	"github.com/keshon/moodbot/internal/lexicon"
	"github.com/keshon/moodbot/internal/storage"
)

// Message is one observed chat message.
type Message struct {
	ChatID   string
	AuthorID string
	Author   string
	Text     string
	FromBot  bool
}

// learnable reports whether msg may feed the vocabulary.
func learnable(msg Message) bool {
	if msg.FromBot {
		return false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return false
	}
	return !strings.HasPrefix(text, "/") && !strings.HasPrefix(text, "!")
}

// Learn stores msg and one word record per distinct token. It reports
// whether anything was stored.
func (p *Pipeline) Learn(ctx context.Context, msg Message) (bool, error) {
	if p.history == nil || !learnable(msg) {
		return false, nil
	}
	text := strings.TrimSpace(msg.Text)

	tokens := lexicon.Distinct(text)
	words := make([]storage.WordRecord, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, storage.WordRecord{ChatID: msg.ChatID, Word: tok, Context: text})
	}

	rec := storage.MessageRecord{
		ChatID:   msg.ChatID,
		AuthorID: msg.AuthorID,
		Author:   msg.Author,
		Text:     text,
	}
	if err := p.history.SaveMessage(ctx, rec, words); err != nil {
		return false, fmt.Errorf("learn message: %w", err)
	}
	return true, nil
}

// Observe learns msg and moves the chat mood by its sentiment. A learning
// failure is logged and does not stop the mood update.
func (p *Pipeline) Observe(ctx context.Context, msg Message) (karma.Result, error) {
	if msg.FromBot {
		return karma.Result{}, nil
	}
	if _, err := p.Learn(ctx, msg); err != nil {
		p.log.Warn().Err(err).Str("chat", msg.ChatID).Msg("message not learned")
	}

	delta := karma.SentimentDelta(msg.Text, p.opts.Restricted)
	if delta == 0 {
		return karma.Result{}, nil
	}
	return p.UpdateMood(ctx, msg.ChatID, delta)
}

// Forget wipes everything learned in chatID and drops the cached vocabulary
// so the next reply no longer uses it.
func (p *Pipeline) Forget(ctx context.Context, chatID string) error {
	if err := p.moods.Reset(ctx, chatID); err != nil {
		return err
	}
	p.vocab.Invalidate()
	return nil
}
