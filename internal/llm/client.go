// Package llm is a minimal OpenAI-compatible chat completions client.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Provider identifies one chat completions endpoint.
type Provider struct {
	ID      string
	BaseURL string
}

// Request is one completion call. SystemPrompt may be empty.
type Request struct {
	Provider     Provider
	APIKey       string
	Model        string
	SystemPrompt string
	UserContent  string
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Client sends chat completions over HTTP.
type Client struct {
	http *http.Client
}

// NewClient returns a client with the given per-request timeout (default 30s).
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{http: &http.Client{Timeout: timeout}}
}

// Complete issues a plain completion. ok is false when the response carried no content.
func (c *Client) Complete(ctx context.Context, req Request) (string, bool, error) {
	return c.send(ctx, req, nil)
}

// CompleteWithSchema constrains the response to schema via response_format json_schema.
func (c *Client) CompleteWithSchema(ctx context.Context, req Request, name string, schema json.RawMessage) (string, bool, error) {
	return c.send(ctx, req, &responseFormat{
		Type:       "json_schema",
		JSONSchema: &jsonSchema{Name: name, Strict: true, Schema: schema},
	})
}

func (c *Client) send(ctx context.Context, req Request, format *responseFormat) (string, bool, error) {
	endpoint, err := completionsURL(req.Provider.BaseURL)
	if err != nil {
		return "", false, err
	}

	messages := make([]message, 0, 2)
	if system := strings.TrimSpace(req.SystemPrompt); system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{Role: "user", Content: req.UserContent})

	body, err := json.Marshal(chatRequest{
		Model:          req.Model,
		Messages:       messages,
		ResponseFormat: format,
	})
	if err != nil {
		return "", false, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(req.APIKey); key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", false, fmt.Errorf("chat request to %s: %w", req.Provider.ID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", false, fmt.Errorf("read chat response: %w", err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			return "", false, fmt.Errorf("chat api %s: status %d: %s", req.Provider.ID, resp.StatusCode, decoded.Error.Message)
		}
		return "", false, fmt.Errorf("chat api %s: status %d: %s", req.Provider.ID, resp.StatusCode, truncate(string(raw), 200))
	}
	if decodeErr != nil {
		return "", false, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if decoded.Error != nil {
		return "", false, fmt.Errorf("chat api %s: %s", req.Provider.ID, decoded.Error.Message)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == nil {
		return "", false, nil
	}
	content := *decoded.Choices[0].Message.Content
	if content == "" {
		return "", false, nil
	}
	return content, true, nil
}

func completionsURL(baseURL string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", fmt.Errorf("provider base url is empty")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "", fmt.Errorf("provider base url %q must start with http:// or https://", baseURL)
	}
	return base + "/chat/completions", nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
