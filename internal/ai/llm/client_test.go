package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func geminiServer(t *testing.T, reply string, capture *GeminiRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		resp := GeminiResponse{}
		resp.Candidates = []struct {
			Content      GeminiContent `json:"content"`
			FinishReason string        `json:"finishReason"`
		}{
			{Content: GeminiContent{Role: "model", Parts: []GeminiPart{{Text: reply}}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(provider Provider, baseURL string) *Client {
	return NewClient(&ClientConfig{
		Provider:    provider,
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     baseURL,
		MaxTokens:   256,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	})
}

func TestGenerateGemini(t *testing.T) {
	var captured GeminiRequest
	server := geminiServer(t, "hello back", &captured)
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	got, err := client.Generate(context.Background(), Request{
		System:  "be terse",
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "hello back" {
		t.Errorf("expected 'hello back', got %q", got)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "be terse" {
		t.Errorf("system instruction not forwarded: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Role != "user" {
		t.Errorf("unexpected contents: %+v", captured.Contents)
	}
	if len(captured.Tools) != 0 {
		t.Errorf("search tool should be absent, got %+v", captured.Tools)
	}
}

func TestGenerateGeminiSearchEnabled(t *testing.T) {
	var captured GeminiRequest
	server := geminiServer(t, "grounded answer", &captured)
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	_, err := client.Generate(context.Background(), Request{
		Content:       "what moved the market today",
		SearchEnabled: true,
		JSONMode:      true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].GoogleSearch == nil {
		t.Errorf("expected google_search tool, got %+v", captured.Tools)
	}
	// search and JSON mime type are mutually exclusive on the API
	if captured.GenerationConfig.ResponseMimeType != "" {
		t.Errorf("responseMimeType should be unset with search, got %q", captured.GenerationConfig.ResponseMimeType)
	}
}

func TestGenerateGeminiJSONMode(t *testing.T) {
	var captured GeminiRequest
	server := geminiServer(t, `{"signal":"CALL"}`, &captured)
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	got, err := client.Generate(context.Background(), Request{
		Content:  "decide",
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != `{"signal":"CALL"}` {
		t.Errorf("unexpected reply: %q", got)
	}
	if captured.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("expected application/json mime type, got %q", captured.GenerationConfig.ResponseMimeType)
	}
}

func TestGenerateGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	_, err := client.Generate(context.Background(), Request{Content: "hi"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		t.Errorf("expected API error status in message, got %v", err)
	}
}

func TestGenerateGeminiEmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	_, err := client.Generate(context.Background(), Request{Content: "hi"})
	if err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGenerateOpenAIJSONMode(t *testing.T) {
	var captured OpenAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	client := testClient(ProviderOpenAI, server.URL)
	got, err := client.Generate(context.Background(), Request{
		System:   "sys",
		Content:  "go",
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != `{"ok":true}` {
		t.Errorf("unexpected reply: %q", got)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", captured.ResponseFormat)
	}
	if len(captured.Messages) == 0 || captured.Messages[0].Role != "system" {
		t.Errorf("system message not prepended: %+v", captured.Messages)
	}
}

func TestGenerateClaude(t *testing.T) {
	var captured ClaudeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing x-api-key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"reply"}]}`))
	}))
	defer server.Close()

	client := testClient(ProviderClaude, server.URL)
	got, err := client.Generate(context.Background(), Request{System: "sys", Content: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "reply" {
		t.Errorf("unexpected reply: %q", got)
	}
	if captured.System != "sys" {
		t.Errorf("system not forwarded: %q", captured.System)
	}
}

func TestGenerateContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, Request{Content: "hi"})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestChatAccumulatesHistory(t *testing.T) {
	var captured GeminiRequest
	server := geminiServer(t, "sure", &captured)
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	chat := client.NewChat("assistant persona")

	if _, err := chat.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := chat.Send(context.Background(), "second"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// second request carries first user turn, model reply, and second user turn
	if len(captured.Contents) != 3 {
		t.Fatalf("expected 3 messages in second request, got %d", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Errorf("expected model role for reply, got %q", captured.Contents[1].Role)
	}
	if chat.Len() != 4 {
		t.Errorf("expected 4 history entries, got %d", chat.Len())
	}
}

func TestChatRollsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(ProviderGemini, server.URL)
	chat := client.NewChat("")
	if _, err := chat.Send(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if chat.Len() != 0 {
		t.Errorf("failed turn should not remain in history, got %d entries", chat.Len())
	}
}
