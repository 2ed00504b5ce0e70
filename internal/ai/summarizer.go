// Package ai generates study material from finished lecture transcripts: a
// short summary, key terms, and review questions.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// Enrichment is the generated study material for one lecture.
type Enrichment struct {
	// Summary is a few sentences covering the main points.
	Summary string `json:"summary"`

	// Keywords are the key terms and concepts mentioned.
	Keywords []string `json:"keywords"`

	// Questions are review questions a student could answer from the
	// transcript.
	Questions []string `json:"questions"`
}

// Summarizer produces an Enrichment from a lecture transcript.
type Summarizer interface {
	Enrich(ctx context.Context, transcript []string) (Enrichment, error)
}

// OpenAISummarizer implements Summarizer using the OpenAI chat API.
type OpenAISummarizer struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the summarizer.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for OpenAISummarizer.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// NewOpenAISummarizer constructs a summarizer backed by the OpenAI API.
func NewOpenAISummarizer(apiKey, model string, opts ...Option) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("ai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &OpenAISummarizer{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Compile-time interface check.
var _ Summarizer = (*OpenAISummarizer)(nil)

const systemPrompt = `You are a study assistant. Given a lecture transcript,
respond with a JSON object with exactly these fields:
  "summary":   a summary of the lecture in at most five sentences
  "keywords":  up to ten key terms or concepts, as an array of strings
  "questions": three to five review questions, as an array of strings
Respond with the JSON object only, no surrounding prose.`

// Enrich asks the model for a summary, keywords, and review questions.
func (s *OpenAISummarizer) Enrich(ctx context.Context, transcript []string) (Enrichment, error) {
	prompt := buildPrompt(transcript)
	if prompt == "" {
		return Enrichment{}, fmt.Errorf("ai: transcript is empty")
	}

	resp, err := s.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(prompt),
		},
		Temperature: param.NewOpt(0.2),
	})
	if err != nil {
		return Enrichment{}, fmt.Errorf("ai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Enrichment{}, fmt.Errorf("ai: empty choices in response")
	}

	return parseEnrichment(resp.Choices[0].Message.Content)
}

// buildPrompt joins the transcript lines into the user prompt, skipping
// empty padding lines.
func buildPrompt(transcript []string) string {
	var b strings.Builder
	for _, line := range transcript {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// parseEnrichment decodes the model's JSON reply, tolerating a markdown code
// fence around it.
func parseEnrichment(content string) (Enrichment, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	var e Enrichment
	if err := json.Unmarshal([]byte(content), &e); err != nil {
		return Enrichment{}, fmt.Errorf("ai: parse enrichment reply: %w", err)
	}
	if e.Summary == "" {
		return Enrichment{}, fmt.Errorf("ai: enrichment reply has no summary")
	}
	return e, nil
}
