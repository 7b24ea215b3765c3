package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"therapy-notes/pkg/llm"
	"therapy-notes/pkg/models"
)

func TestSummarize(t *testing.T) {
	fake := &llm.Fake{Responses: []string{"The client feels tired: \"I feel tired.\""}}
	s := New(fake, Options{Model: "gpt-3.5-turbo", SummaryMaxTokens: 600})

	got, err := s.Summarize(context.Background(), []models.Attribution{
		{Role: models.RoleTherapist, Text: "How are you?"},
		{Role: models.RoleClient, Text: "I feel tired."},
	})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "The client feels tired: \"I feel tired.\"" {
		t.Errorf("Summarize() = %q", got)
	}

	req := fake.Requests[0]
	if req.Stage != StageSummarize || req.MaxTokens != 600 || req.Model != "gpt-3.5-turbo" {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.User, "Therapist: How are you?\nClient: I feel tired.") {
		t.Errorf("prompt missing labeled conversation:\n%s", req.User)
	}
}

func TestRefine(t *testing.T) {
	fake := &llm.Fake{Responses: []string{"better summary"}}
	s := New(fake, Options{RefineMaxTokens: 700})

	got, err := s.Refine(context.Background(), "old summary", "quotes missing", "Client: I worry.")
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if got != "better summary" {
		t.Errorf("Refine() = %q", got)
	}

	req := fake.Requests[0]
	if req.Stage != StageRefine || req.MaxTokens != 700 {
		t.Errorf("request = %+v", req)
	}
	for _, part := range []string{"old summary", "quotes missing", "Client: I worry."} {
		if !strings.Contains(req.User, part) {
			t.Errorf("refine prompt missing %q", part)
		}
	}
}

func TestSummarize_PropagatesFailure(t *testing.T) {
	boom := errors.New("network down")
	s := New(llm.GeneratorFunc(func(context.Context, llm.Request) (string, error) {
		return "", boom
	}), Options{})

	if _, err := s.Summarize(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("Summarize() error = %v, want %v", err, boom)
	}
}
