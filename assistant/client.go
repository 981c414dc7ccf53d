// Package assistant talks to the generative AI gateway. Every operation sends
// a prompt, extracts the JSON object from the raw completion and validates it
// before anything reaches the caller.
package assistant

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medhub/medhub-api/entities"
)

// ErrDisabled is returned by every operation when no API key is configured
var ErrDisabled = errors.New("assistant is not configured")

// maxErrorBody bounds how much of a failed gateway response is kept
const maxErrorBody = 2048

// ProviderError is a non-2xx answer or transport failure of the gateway
type ProviderError struct {
	StatusCode int // 0 for transport failures
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai gateway request failed: %v", e.Err)
	}
	return fmt.Sprintf("ai gateway error (status %d): %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// HTTPStatus is the status our API answers with. Rate limiting and exhausted
// credits are passed through, anything else is a bad gateway.
func (e *ProviderError) HTTPStatus() int {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return e.StatusCode
	default:
		return http.StatusBadGateway
	}
}

// Prompt is one completion request
type Prompt struct {
	System  string
	User    string
	History []entities.ChatTurn
	Image   *entities.Image
}

// Completer returns the raw text of a completion
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is an OpenAI compatible chat completions client
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func buildMessages(p Prompt) []chatMessage {
	messages := make([]chatMessage, 0, len(p.History)+2)
	if p.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	for _, turn := range p.History {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}

	if p.Image == nil {
		messages = append(messages, chatMessage{Role: "user", Content: p.User})
		return messages
	}

	dataURL := "data:" + p.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Image.Data)
	messages = append(messages, chatMessage{Role: "user", Content: []contentPart{
		{Type: "text", Text: p.User},
		{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
	}})
	return messages
}

// Complete sends the prompt and returns the text of the first choice
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	if c.apiKey == "" {
		return "", ErrDisabled
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: buildMessages(p)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ProviderError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Err: errors.New("no response choices returned")}
	}

	return chatResp.Choices[0].Message.Content, nil
}
