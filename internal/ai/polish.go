package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// PolishPrompt keeps the model on a short leash: fix the surface, keep the
// words and the mood, answer with the sentence only.
const PolishPrompt = `Ты корректор реплик чат-бота. Исправь грамматику, согласование и порядок слов в присланной фразе так, чтобы она звучала естественно по-русски.
Правила:
- сохрани исходные слова, насколько это возможно, и общий смысл;
- сохрани настроение и резкость фразы, не смягчай и не извиняйся;
- не добавляй пояснений, кавычек и вариантов;
- ответь одной фразой не длиннее 20 слов.`

// Style tells the model which mood the phrase carries and how the chat talks.
type Style struct {
	Mood    string
	Traits  []string
	Samples []string
}

// Polisher turns an assembled sentence into a natural one through a Provider.
type Polisher struct {
	provider Provider
	limiter  *AdaptiveLimiter
	timeout  time.Duration
	log      zerolog.Logger
}

// NewPolisher wraps provider. limiter may be nil.
func NewPolisher(provider Provider, limiter *AdaptiveLimiter, timeout time.Duration, log zerolog.Logger) *Polisher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Polisher{provider: provider, limiter: limiter, timeout: timeout, log: log}
}

// BuildMessages returns the conversation sent to the provider.
func BuildMessages(text string, style Style) []Message {
	var b strings.Builder
	if style.Mood != "" {
		b.WriteString("Настроение: ")
		b.WriteString(style.Mood)
		if len(style.Traits) > 0 {
			b.WriteString(" (")
			b.WriteString(strings.Join(style.Traits, ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	if len(style.Samples) > 0 {
		b.WriteString("Так пишут в этом чате:\n")
		for _, s := range style.Samples {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(s))
			b.WriteString("\n")
		}
	}
	b.WriteString("Фраза: ")
	b.WriteString(text)

	return []Message{
		{Role: "system", Content: PolishPrompt},
		{Role: "user", Content: b.String()},
	}
}

// Polish returns the polished text or an error; callers keep text on error.
func (p *Polisher) Polish(ctx context.Context, text string, style Style) (string, error) {
	if p.limiter != nil && !p.limiter.Allow() {
		return "", ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := time.Now()
	out, err := p.provider.Generate(ctx, BuildMessages(text, style))
	if err != nil {
		if p.limiter != nil && overloaded(err) {
			p.limiter.RateLimited()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("polish timed out after %s: %w", p.timeout, err)
		}
		return "", fmt.Errorf("polish: %w", err)
	}
	if p.limiter != nil {
		p.limiter.Success()
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyReply
	}
	// a rambling answer is not a polished sentence
	if utf8.RuneCountInString(out) > 4*utf8.RuneCountInString(text)+80 {
		return "", fmt.Errorf("polish reply too long: %w", ErrGarbage)
	}

	p.log.Debug().Dur("took", time.Since(started)).Str("in", text).Str("out", out).Msg("polished")
	return out, nil
}
