// Package ai talks to the external text backends used to polish replies.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/keshon/moodbot/internal/config"
)

var (
	ErrEmptyReply  = errors.New("empty reply")
	ErrGarbage     = errors.New("garbage reply")
	ErrRateLimited = errors.New("polish rate limit reached")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// StatusError is a non-2xx answer from a backend.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Provider, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

// overloaded reports whether err says the backend wants us to slow down.
func overloaded(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == http.StatusTooManyRequests || se.Code >= 500
}

// NewProvider returns the backend named by POLISH_PROVIDER, or nil for "none".
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.PolishProvider {
	case "none", "":
		return nil, nil
	case "pollinations":
		return NewPollinationsProvider(""), nil
	case "g4f":
		return NewG4FProvider(cfg.G4FEngine), nil
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, cfg.PolishTimeout)
	default:
		return nil, fmt.Errorf("unsupported POLISH_PROVIDER: %s", cfg.PolishProvider)
	}
}
