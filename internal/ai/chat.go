package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxReplyBytes caps how much of a backend answer is read.
const maxReplyBytes = 64 * 1024

// chatEndpoint posts OpenAI-style chat completion requests over plain HTTP
// for backends that need no SDK.
type chatEndpoint struct {
	name   string
	url    string
	client *http.Client
}

func (e *chatEndpoint) complete(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", e.name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return "", fmt.Errorf("%s: read reply: %w", e.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Provider: e.name, Code: resp.StatusCode, Body: truncate(body)}
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return "", fmt.Errorf("%s returned html: %w", e.name, ErrGarbage)
	}

	reply, err := parseChoices(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.name, err)
	}
	return reply, nil
}

// parseChoices extracts the first choice of an OpenAI-style response.
func parseChoices(body []byte) (string, error) {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal: %w body=%s", err, truncate(body))
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyReply
	}

	reply := cleanReply(parsed.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	if isGarbageResponse(reply) {
		return "", ErrGarbage
	}
	return reply, nil
}
