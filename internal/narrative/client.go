package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/yoypulse/pkg/config"
	pkgerrors "github.com/angelmondragon/yoypulse/pkg/errors"
)

const (
	defaultBaseURL              = "http://localhost:8080/v1"
	defaultModel                = "Meta-Llama-3-8B-Instruct-Q5_K_M"
	defaultMaxTokens            = 200
	responseBodyReadLimit int64 = 1024
)

const analystPrompt = "You are a senior sales analyst. Based on customer performance data, " +
	"provide at least 3 specific, actionable recommendations that a sales team can implement immediately. " +
	"Focus on practical actions like pricing adjustments, targeted outreach, product positioning, " +
	"inventory management, or relationship building. Be concise and specific. " +
	"Format as a numbered list with brief, actionable statements."

// ErrUnavailable wraps every transport, status or decoding failure.
var ErrUnavailable = errors.New("narrative unavailable")

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	maxTokens  int
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a client from the AI config section.
func NewClient(cfg config.AIConfig, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		model:      strings.TrimSpace(cfg.Model),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxTokens:  cfg.MaxTokens,
	}
	if client.httpClient.Timeout <= 0 {
		client.httpClient.Timeout = 120 * time.Second
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.model == "" {
		client.model = defaultModel
	}
	if client.maxTokens <= 0 {
		client.maxTokens = defaultMaxTokens
	}
	return client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

// Ask sends one user prompt, preceded by system when it is not blank.
func (c *Client) Ask(ctx context.Context, prompt, system string) (string, error) {
	if c == nil {
		return "", unavailable(errors.New("narrative client not configured"), "narrative client not configured")
	}

	messages := []chatMessage{{Role: "user", Content: prompt}}
	if strings.TrimSpace(system) != "" {
		messages = append([]chatMessage{{Role: "system", Content: system}}, messages...)
	}
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0,
		MaxTokens:   c.maxTokens,
		TopP:        0.8,
	})
	if err != nil {
		return "", unavailable(err, "marshal chat request")
	}

	url := strings.TrimRight(c.baseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", unavailable(err, "build chat request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", unavailable(err, "execute chat request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", unavailable(fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "chat request failed")
	}

	var apiResp struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", unavailable(err, "decode chat response")
	}
	if len(apiResp.Choices) == 0 {
		return "", unavailable(errors.New("response has no choices"), "decode chat response")
	}
	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

// Recommend asks for sales actions for one customer.
func (c *Client) Recommend(ctx context.Context, s Summary) (string, error) {
	return c.Ask(ctx, s.Prompt(), analystPrompt)
}

func unavailable(err error, message string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %w", ErrUnavailable, err), message)
}
