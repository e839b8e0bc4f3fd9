package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// per-field limits, in characters, for free text placed into prompts
const (
	maxDescriptionLen = 6000
	maxAnswerLen      = 3000
	maxQuestionLen    = 1000
)

type Client struct {
	apiKey string
	model  string
	base   string
	http   *http.Client
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		base:   strings.TrimRight(baseURL, "/"),
		http:   &http.Client{Timeout: timeout},
	}
}

type ChatRequest struct {
	Model          string              `json:"model"`
	Messages       []map[string]string `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Temperature    float32             `json:"temperature"`
	ResponseFormat *ResponseFormat     `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	url := c.base + "/chat/completions"
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKey)
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return "", fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read groq response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("groq api error: status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	var ch ChatResponse
	if err := json.Unmarshal(bodyBytes, &ch); err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}

	if ch.Error != nil {
		return "", fmt.Errorf("api error: %s", ch.Error.Message)
	}

	if len(ch.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return ch.Choices[0].Message.Content, nil
}

// chatJSON sends a system+user prompt and decodes the JSON reply into out.
func (c *Client) chatJSON(ctx context.Context, system, user string, maxTokens int, out any) error {
	respStr, err := c.Chat(ctx, ChatRequest{
		Messages: []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		MaxTokens:      maxTokens,
		Temperature:    0.2,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(respStr)), out); err != nil {
		return fmt.Errorf("failed to parse ai response: %w; raw response: %q", err, truncate(respStr, 256))
	}
	return nil
}

// stripFences removes a ```json ... ``` wrapper some models add despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// clip keeps at most n characters of s.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return clip(s, n) + "..."
}
