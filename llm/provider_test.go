package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantType string
	}{
		{"gemini", "*llm.geminiProvider"},
		{"openai", "*llm.openAIProvider"},
		{"groq", "*llm.groqProvider"},
		{"ollama", "*llm.ollamaProvider"},
		{"custom", "*llm.openAICompatProvider"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			if err != nil {
				t.Fatalf("NewProvider(%q) returned error: %v", tt.provider, err)
			}
			gotType := fmt.Sprintf("%T", p)
			if gotType != tt.wantType {
				t.Errorf("NewProvider(%q) type = %s, want %s", tt.provider, gotType, tt.wantType)
			}
		})
	}
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider(Config{Provider: "doesnotexist", Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
	want := "unknown llm provider: doesnotexist"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewProviderEmpty(t *testing.T) {
	_, err := NewProvider(Config{Model: "test-model"})
	if err == nil {
		t.Fatal("expected error for empty provider, got nil")
	}
	want := "llm provider not specified"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

// TestDefaultBaseURLs verifies that when BaseURL is empty in the config,
// each provider constructor sets the correct default.
func TestDefaultBaseURLs(t *testing.T) {
	tests := []struct {
		provider string
		wantURL  string
	}{
		{"gemini", "https://generativelanguage.googleapis.com/v1beta/openai"},
		{"openai", "https://api.openai.com"},
		{"groq", "https://api.groq.com/openai"},
		{"ollama", "http://localhost:11434"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(Config{Provider: tt.provider, Model: "test-model"})
			if err != nil {
				t.Fatalf("NewProvider(%q): %v", tt.provider, err)
			}

			// Use reflection to reach base.cfg.BaseURL on the concrete type.
			v := reflect.ValueOf(p).Elem()
			gotURL := v.FieldByName("base").FieldByName("cfg").FieldByName("BaseURL").String()
			if gotURL != tt.wantURL {
				t.Errorf("default BaseURL for %q = %q, want %q", tt.provider, gotURL, tt.wantURL)
			}
		})
	}
}

func TestChatSingleRequest(t *testing.T) {
	var requests int
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"},"finish_reason":"stop"}],"model":"m","usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`)
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL, APIKey: "sk-test"})
	resp, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("content = %q, want %q", resp.Content, "hello")
	}
	if resp.TotalTokens != 5 {
		t.Errorf("total tokens = %d, want 5", resp.TotalTokens)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want exactly 1 (transport must not retry)", requests)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q, want %q", gotAuth, "Bearer sk-test")
	}
}

func TestChatRateLimited(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "slow down")
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if requests != 1 {
		t.Errorf("requests = %d, want exactly 1 (transport must not retry)", requests)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an *APIError", err)
	}
	if !apiErr.Transient() {
		t.Error("429 should be transient")
	}
	if apiErr.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", apiErr.RetryAfter)
	}
	if !IsTransient(err) {
		t.Error("IsTransient(429) = false, want true")
	}
}

func TestChatAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "bad key")
	}))
	defer srv.Close()

	p := NewOpenAICompat(Config{Provider: "custom", Model: "m", BaseURL: srv.URL})
	_, err := p.Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if IsTransient(err) {
		t.Error("IsTransient(401) = true, want false")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"wrapped cancel", fmt.Errorf("request failed: %w", context.Canceled), false},
		{"network error", errors.New("connection refused"), true},
		{"malformed body", fmt.Errorf("decoding chat response: unexpected EOF"), true},
		{"api 500", &APIError{StatusCode: 500}, false},
		{"api 503", &APIError{StatusCode: 503}, true},
		{"api 400", &APIError{StatusCode: 400}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
