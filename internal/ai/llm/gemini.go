package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// GeminiRequest represents a Gemini generateContent request
type GeminiRequest struct {
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	Contents          []GeminiContent        `json:"contents"`
	Tools             []GeminiTool           `json:"tools,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is a role-tagged list of parts
type GeminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart carries one text fragment
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiTool enables a built-in tool for the call
type GeminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// GeminiGenerationConfig tunes generation
type GeminiGenerationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// GeminiResponse represents a Gemini generateContent response
type GeminiResponse struct {
	Candidates []struct {
		Content      GeminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// completeGemini sends a request to the Gemini API. Search grounding and JSON
// output are mutually exclusive on the API side; when both are requested the
// search tool wins and the caller strips fences from the reply instead.
func (c *Client) completeGemini(ctx context.Context, system string, messages []Message, searchEnabled, jsonMode bool) (string, error) {
	contents := make([]GeminiContent, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: m.Content}},
		})
	}

	req := GeminiRequest{
		Contents: contents,
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:     c.config.Temperature,
			MaxOutputTokens: c.config.MaxTokens,
		},
	}
	if system != "" {
		req.SystemInstruction = &GeminiContent{Parts: []GeminiPart{{Text: system}}}
	}
	if searchEnabled {
		req.Tools = []GeminiTool{{GoogleSearch: &struct{}{}}}
	} else if jsonMode {
		req.GenerationConfig.ResponseMimeType = "application/json"
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL("https://generativelanguage.googleapis.com"), c.config.Model, c.config.APIKey)

	respBody, err := c.post(ctx, url, nil, req)
	if err != nil {
		return "", err
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("API error: %s - %s", geminiResp.Error.Status, geminiResp.Error.Message)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	var text string
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
