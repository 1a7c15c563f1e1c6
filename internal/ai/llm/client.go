package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider represents the LLM provider type
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

// ClientConfig holds LLM client configuration
type ClientConfig struct {
	Provider    Provider      `json:"provider"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	BaseURL     string        `json:"base_url"` // empty = provider default
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultClientConfig returns default configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Provider:    ProviderGemini,
		Model:       "gemini-2.5-flash",
		MaxTokens:   2048,
		Temperature: 0.3,
		Timeout:     45 * time.Second,
	}
}

// Request is one generation request against the hosted model
type Request struct {
	System        string // system instruction
	Content       string // user content
	SearchEnabled bool   // let the model ground itself with its search tool
	JSONMode      bool   // constrain the reply to a JSON document
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Client is the LLM API client
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new LLM client
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultClientConfig()
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Generate sends a single-turn request and returns the model's text reply
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	messages := []Message{{Role: "user", Content: req.Content}}
	return c.complete(ctx, req.System, messages, req.SearchEnabled, req.JSONMode)
}

// complete dispatches a conversation to the configured provider
func (c *Client) complete(ctx context.Context, system string, messages []Message, searchEnabled, jsonMode bool) (string, error) {
	switch c.config.Provider {
	case ProviderGemini:
		return c.completeGemini(ctx, system, messages, searchEnabled, jsonMode)
	case ProviderClaude:
		return c.completeClaude(ctx, system, messages)
	case ProviderOpenAI:
		return c.completeOpenAI(ctx, system, messages, jsonMode)
	default:
		return "", fmt.Errorf("unsupported provider: %s", c.config.Provider)
	}
}

func (c *Client) baseURL(providerDefault string) string {
	if c.config.BaseURL != "" {
		return c.config.BaseURL
	}
	return providerDefault
}

// post sends a JSON body and returns the raw response bytes
func (c *Client) post(ctx context.Context, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// structured API errors come back as JSON even on 4xx, so parse those
	if resp.StatusCode >= 400 && !json.Valid(respBody) {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// ClaudeRequest represents a Claude API request
type ClaudeRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
}

// ClaudeResponse represents a Claude API response
type ClaudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) completeClaude(ctx context.Context, system string, messages []Message) (string, error) {
	req := ClaudeRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		System:      system,
		Messages:    messages,
	}

	respBody, err := c.post(ctx, c.baseURL("https://api.anthropic.com")+"/v1/messages", map[string]string{
		"x-api-key":         c.config.APIKey,
		"anthropic-version": "2023-06-01",
	}, req)
	if err != nil {
		return "", err
	}

	var claudeResp ClaudeResponse
	if err := json.Unmarshal(respBody, &claudeResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if claudeResp.Error != nil {
		return "", fmt.Errorf("API error: %s - %s", claudeResp.Error.Type, claudeResp.Error.Message)
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}

	return claudeResp.Content[0].Text, nil
}

// OpenAIRequest represents an OpenAI API request
type OpenAIRequest struct {
	Model          string               `json:"model"`
	Messages       []Message            `json:"messages"`
	MaxTokens      int                  `json:"max_tokens,omitempty"`
	Temperature    float64              `json:"temperature,omitempty"`
	ResponseFormat *OpenAIResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponseFormat selects structured output
type OpenAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

// OpenAIResponse represents an OpenAI API response
type OpenAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (c *Client) completeOpenAI(ctx context.Context, system string, messages []Message, jsonMode bool) (string, error) {
	all := append([]Message{{Role: "system", Content: system}}, messages...)

	req := OpenAIRequest{
		Model:       c.config.Model,
		Messages:    all,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}
	if jsonMode {
		req.ResponseFormat = &OpenAIResponseFormat{Type: "json_object"}
	}

	respBody, err := c.post(ctx, c.baseURL("https://api.openai.com")+"/v1/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.config.APIKey,
	}, req)
	if err != nil {
		return "", err
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if openAIResp.Error != nil {
		return "", fmt.Errorf("API error: %s - %s", openAIResp.Error.Type, openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	return openAIResp.Choices[0].Message.Content, nil
}
