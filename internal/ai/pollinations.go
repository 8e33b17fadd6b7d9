package ai

import (
	"context"
	"net/http"
	"time"
)

const pollinationsURL = "https://text.pollinations.ai/openai"

// PollinationsProvider uses the free pollinations.ai text endpoint.
type PollinationsProvider struct {
	endpoint chatEndpoint
}

// NewPollinationsProvider targets url, or the public endpoint when empty.
func NewPollinationsProvider(url string) *PollinationsProvider {
	if url == "" {
		url = pollinationsURL
	}
	return &PollinationsProvider{endpoint: chatEndpoint{
		name:   "pollinations",
		url:    url,
		client: &http.Client{Timeout: 25 * time.Second},
	}}
}

func (p *PollinationsProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	return p.endpoint.complete(ctx, map[string]any{
		"model":       "openai",
		"messages":    messages,
		"temperature": 1,
		"private":     true,
	})
}
