// Package llm provides the narrative summarizer used by report
// sections. The summarizer is an opaque collaborator: callers hand it
// articles and get prose back, or ErrSummarizationUnavailable, and the
// report degrades to raw headlines in that case.
package llm

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

	"github.com/moneymitra/moneymitra/pkg/models"
)

// ErrSummarizationUnavailable is returned whenever a summary cannot be
// produced, regardless of the underlying cause (no API key, provider
// down, rate limit). Callers degrade, they never retry into the model.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")

// Summarizer produces a short narrative from news articles.
type Summarizer interface {
	// Summarize condenses the articles into a few sentences about the
	// named company, from the given angle (e.g. "strategic developments",
	// "upcoming catalysts").
	Summarize(ctx context.Context, company, angle string, articles []models.NewsArticle) (string, error)
}

// Disabled is a Summarizer that always reports unavailability. Used
// when no LLM is configured.
type Disabled struct{}

func (Disabled) Summarize(context.Context, string, string, []models.NewsArticle) (string, error) {
	return "", fmt.Errorf("%w: no LLM configured", ErrSummarizationUnavailable)
}

// OpenAI is a Summarizer backed by an OpenAI-compatible chat
// completions endpoint.
type OpenAI struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// Option configures the OpenAI summarizer.
type Option func(*OpenAI)

// WithBaseURL sets a custom base URL (Azure, proxies, local runtimes).
func WithBaseURL(url string) Option {
	return func(p *OpenAI) { p.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(p *OpenAI) { p.model = model }
}

// NewOpenAI creates an OpenAI-compatible summarizer.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", ErrSummarizationUnavailable)
	}
	p := &OpenAI{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "gpt-4o-mini",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = "You are a financial news analyst. Summarize the given " +
	"headlines about a company in 2-4 factual sentences. Stick strictly to " +
	"what the headlines say; do not speculate or give investment advice."

// Summarize condenses the articles via one chat completion call.
func (p *OpenAI) Summarize(ctx context.Context, company, angle string, articles []models.NewsArticle) (string, error) {
	if len(articles) == 0 {
		return "", fmt.Errorf("%w: no articles to summarize", ErrSummarizationUnavailable)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\nAngle: %s\nHeadlines:\n", company, angle)
	for _, a := range articles {
		fmt.Fprintf(&sb, "- %s", a.Title)
		if a.Summary != "" {
			fmt.Fprintf(&sb, " — %s", a.Summary)
		}
		sb.WriteByte('\n')
	}

	reqBody := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sb.String()},
		},
		Temperature: 0.2,
		MaxTokens:   300,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrSummarizationUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrSummarizationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrSummarizationUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrSummarizationUnavailable, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrSummarizationUnavailable, err)
	}
	if cr.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrSummarizationUnavailable, cr.Error.Message)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrSummarizationUnavailable)
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}
