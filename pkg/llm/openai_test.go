package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"therapy-notes/pkg/config"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o, err := NewOpenAI(config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI() error = %v", err)
	}
	return o
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAI(config.LLMConfig{}); err == nil {
		t.Error("NewOpenAI() without a key should fail")
	}
}

func TestOpenAI_Generate(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  SCORE: 90\nCRITIQUE: fine  "},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	out, err := o.Generate(context.Background(), Request{
		Stage:     "evaluate",
		Model:     "gpt-4",
		System:    "you evaluate",
		User:      "summary",
		MaxTokens: 800,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out != "SCORE: 90\nCRITIQUE: fine" {
		t.Errorf("Generate() = %q", out)
	}

	if got.Model != "gpt-4" || got.MaxTokens != 800 {
		t.Errorf("request model/max_tokens = %s/%d", got.Model, got.MaxTokens)
	}
	if got.Temperature <= 0 || got.Temperature > 1e-6 {
		t.Errorf("temperature = %v, want a near-zero explicit value", got.Temperature)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "summary" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestOpenAI_GenerateNoChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	})

	_, err := o.Generate(context.Background(), Request{Stage: "merge"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Generate() error = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAI_GenerateServiceError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`))
	})

	if _, err := o.Generate(context.Background(), Request{Stage: "summarize"}); err == nil {
		t.Error("Generate() should surface service failures")
	}
}
