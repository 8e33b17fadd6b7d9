package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client openaigo.Client
	model  string
}

func NewOpenAIProvider(baseURL, apiKey, model string, timeout time.Duration) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai provider: api key is required")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	return &OpenAIProvider{
		client: openaigo.NewClient(opts...),
		model:  model,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	params := openaigo.ChatCompletionNewParams{
		Model:    openaigo.ChatModel(p.model),
		Messages: make([]openaigo.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openaigo.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openaigo.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openaigo.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openaigo.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: "openai", Code: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyReply)
	}

	reply := cleanReply(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyReply)
	}
	if isGarbageResponse(reply) {
		return "", fmt.Errorf("openai: %w", ErrGarbage)
	}
	return reply, nil
}
