package ai

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	g4fBase         = "https://g4f.dev/api"
	g4fDefaultModel = "gpt-oss-120b"
)

// G4FProvider talks to the g4f.dev gateway. The engine string selects the
// route and model:
//
//	g4f:gpt-oss-120b
//	g4f:groq/qwen/qwen3-32b
//	g4f:ollama/gpt-oss:20b
type G4FProvider struct {
	baseURL  string
	model    string
	endpoint chatEndpoint
}

func NewG4FProvider(engine string) *G4FProvider {
	_, target, ok := strings.Cut(engine, ":")
	if !ok || target == "" {
		target = g4fDefaultModel
	}

	base, model := g4fBase+"/"+g4fDefaultModel, target
	for _, route := range []string{"groq", "ollama"} {
		if rest, found := strings.CutPrefix(target, route+"/"); found {
			base, model = g4fBase+"/"+route, rest
			break
		}
	}

	p := &G4FProvider{model: model}
	return p.WithBaseURL(base)
}

// WithBaseURL points the provider at another OpenAI-compatible endpoint.
func (p *G4FProvider) WithBaseURL(u string) *G4FProvider {
	p.baseURL = strings.TrimRight(u, "/")
	p.endpoint = chatEndpoint{
		name:   "g4f",
		url:    p.baseURL + "/chat/completions",
		client: &http.Client{Timeout: 30 * time.Second},
	}
	return p
}

func (p *G4FProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	return p.endpoint.complete(ctx, map[string]any{
		"model":    p.model,
		"messages": messages,
	})
}
