// Package enrich turns session summaries into human-readable outcome
// lines with an OpenAI-compatible chat model. Enrichment is best effort;
// callers fall back to rule-based outcomes when it fails.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/p988744/recap-sub001/internal/session"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	requestTimeout = 30 * time.Second

	systemPrompt = "You summarize a software engineering session into one short line " +
		"describing what was accomplished. Answer with the line only, no preamble."
)

// Client handles chat-completion summarization
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a summarization client. Empty baseURL and model fall
// back to OpenAI defaults, so any compatible endpoint can be pointed at.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// Summarize describes one session in a single line.
func (c *Client) Summarize(ctx context.Context, s *session.Summary) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("api key not set")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: describe(s)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("summarize API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("summarize API error (%d)", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// describe renders the session evidence the model summarizes from.
func describe(s *session.Summary) string {
	var b strings.Builder
	if s.FirstMessage != "" {
		fmt.Fprintf(&b, "First request: %s\n", s.FirstMessage)
	}
	if len(s.ToolUsage) > 0 {
		var tools []string
		for _, u := range s.ToolUsage {
			tools = append(tools, fmt.Sprintf("%s(%d)", u.Name, u.Count))
		}
		fmt.Fprintf(&b, "Tools used: %s\n", strings.Join(tools, ", "))
	}
	if len(s.FilesModified) > 0 {
		fmt.Fprintf(&b, "Files modified: %s\n", strings.Join(s.FilesModified, ", "))
	}
	fmt.Fprintf(&b, "Messages: %d, span %s to %s\n", s.MessageCount, s.FirstTimestamp, s.LastTimestamp)
	return b.String()
}
