// Package extractor wraps the Anthropic API behind the narrow parse operation
// the pipeline needs: report text in, unvalidated violation candidates out.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"incidentwatch/report-pipeline/models"
)

// ErrNotConfigured is returned by Parse when no API key was provided. The
// caller treats this as a configuration error: it will fail identically on
// every retry, so it must not be redelivered.
var ErrNotConfigured = errors.New("text-understanding service is not configured: ANTHROPIC_API_KEY is not set")

const defaultModel = "claude-sonnet-4-20250514"

const systemPrompt = `You are an assistant that extracts human rights violation records from free-text incident reports.
Return ONLY a JSON array, with no surrounding prose. Each element must have this shape:
{
  "type": "airstrike|shelling|killing|detention|torture|kidnapping|forced_displacement|property_destruction|landmine|siege|other",
  "date": "YYYY-MM-DD",
  "description": {"en": "...", "ar": "..."},
  "location": {"name": {"en": "...", "ar": "..."}, "administrative_division": {"en": "...", "ar": "..."}},
  "source": {"en": "...", "ar": "..."},
  "source_url": {"en": "...", "ar": "..."},
  "verified": false,
  "certainty_level": "confirmed|probable|possible",
  "casualties": 0,
  "victims": [{"name": "...", "age": 0, "gender": "male|female|unknown"}],
  "media_links": ["..."],
  "tags": ["..."],
  "perpetrator": "...",
  "perpetrator_affiliation": "..."
}
Omit fields you cannot determine. Return [] if the report describes no violation.`

// Client calls Claude to parse incident reports.
type Client struct {
	client     anthropic.Client
	model      anthropic.Model
	maxTokens  int64
	logger     *logrus.Logger
	configured bool
}

// New creates a Client. An empty apiKey is not an immediate error so the
// service can still boot and serve polls; every Parse call will report
// ErrNotConfigured instead.
func New(apiKey, model string, logger *logrus.Logger, opts ...option.RequestOption) *Client {
	if model == "" {
		model = defaultModel
	}
	c := &Client{
		model:      anthropic.Model(model),
		maxTokens:  8192,
		logger:     logger,
		configured: apiKey != "",
	}
	if c.configured {
		c.client = anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	}
	return c
}

// Parse sends the report text and its source attribution to the model and
// decodes the returned candidate array. An empty array is a valid result, not
// an error.
func (c *Client) Parse(ctx context.Context, reportText string, source *models.SourceAttribution) ([]models.Violation, error) {
	if !c.configured {
		return nil, ErrNotConfigured
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(reportText, source))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("text-understanding request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw := stripFences(text.String())
	var candidates []models.Violation
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		return nil, fmt.Errorf("text-understanding service returned malformed output: %w", err)
	}

	c.logger.WithField("candidates", len(candidates)).Info("Parsed incident report")
	return candidates, nil
}

func buildUserPrompt(reportText string, source *models.SourceAttribution) string {
	var b strings.Builder
	b.WriteString("Incident report:\n\n")
	b.WriteString(reportText)
	if source != nil && source.Name != "" {
		b.WriteString("\n\nReport source: ")
		b.WriteString(source.Name)
		if source.URL != nil && *source.URL != "" {
			b.WriteString("\nSource URL: ")
			b.WriteString(*source.URL)
		}
		if source.ReportDate != nil && *source.ReportDate != "" {
			b.WriteString("\nReport date: ")
			b.WriteString(*source.ReportDate)
		}
	}
	return b.String()
}

// stripFences removes a surrounding markdown code fence, which the model
// sometimes adds despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
