package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func collect(t *testing.T, m *ChatModel, req *model.LLMRequest) (*model.LLMResponse, error) {
	t.Helper()
	var (
		out    *model.LLMResponse
		outErr error
	)
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		out, outErr = resp, err
	}
	return out, outErr
}

func TestGenerateContentSendsDefaultsAndSystemPrompt(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Fatalf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Hello there  "}}]}`))
	}))
	defer server.Close()

	m := NewModel(Config{APIKey: "key", BaseURL: server.URL + "/"})
	resp, err := collect(t, m, &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "Write it"}}}},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: "You are Propensia AI"}}},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Model != "gpt-3.5-turbo" || captured.MaxTokens != 300 || captured.Temperature != 0.7 {
		t.Fatalf("unexpected defaults: %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "Write it" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	if resp.Content.Parts[0].Text != "Hello there" {
		t.Fatalf("unexpected text %q", resp.Content.Parts[0].Text)
	}
}

func TestGenerateContentReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	m := NewModel(Config{APIKey: "wrong", BaseURL: server.URL})
	_, err := collect(t, m, &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: "hi"}}}},
	})
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
}
