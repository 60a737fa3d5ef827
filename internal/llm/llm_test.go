package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moneymitra/moneymitra/pkg/models"
)

var sampleArticles = []models.NewsArticle{
	{Title: "Reliance wins telecom order", Summary: "A new 5G rollout contract."},
}

func TestSummarize(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Reliance secured a 5G rollout contract."}},
			},
		})
	}))
	defer srv.Close()

	s, err := NewOpenAI("test-key", WithBaseURL(srv.URL), WithModel("gpt-4o-mini"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.Summarize(context.Background(), "Reliance Industries", "strategic developments", sampleArticles)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "Reliance secured a 5G rollout contract." {
		t.Errorf("got %q", out)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages: got %+v", gotReq.Messages)
	}
}

func TestSummarizeServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s, _ := NewOpenAI("test-key", WithBaseURL(srv.URL))
	_, err := s.Summarize(context.Background(), "Reliance", "risk", sampleArticles)
	if !errors.Is(err, ErrSummarizationUnavailable) {
		t.Fatalf("expected summarization-unavailable, got %v", err)
	}
}

func TestSummarizeNoArticles(t *testing.T) {
	s, _ := NewOpenAI("test-key")
	_, err := s.Summarize(context.Background(), "Reliance", "risk", nil)
	if !errors.Is(err, ErrSummarizationUnavailable) {
		t.Fatalf("expected summarization-unavailable, got %v", err)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI("")
	if !errors.Is(err, ErrSummarizationUnavailable) {
		t.Fatalf("expected summarization-unavailable, got %v", err)
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Summarize(context.Background(), "Reliance", "catalysts", sampleArticles)
	if !errors.Is(err, ErrSummarizationUnavailable) {
		t.Fatalf("expected summarization-unavailable, got %v", err)
	}
}
