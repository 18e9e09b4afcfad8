// Package ollama calls the local generative text service for scoring
// explanations and rewrites. Its output is treated as an external, untrusted
// payload: the JSON shape is validated before use and a mismatch is a typed
// external-service error, never a core-pipeline error.
package ollama

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

	"github.com/copylens/analyzer/models"
)

// Defaults for a locally-running Ollama instance.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1"
)

const defaultTimeout = 90 * time.Second

// ErrInvalidShape marks a generative response that does not match the
// expected {scores, explanations, rewrites} schema.
var ErrInvalidShape = errors.New("ollama: response does not match expected schema")

// Client talks to the Ollama generate API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new Ollama client.
func NewClient(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Generate sends a prompt and returns the raw completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(models.OllamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama request failed: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed models.OllamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return strings.TrimSpace(parsed.Response), nil
}

// rewritePayload is the raw JSON shape the model is asked to produce.
type rewritePayload struct {
	Scores       map[string]int    `json:"scores"`
	Explanations map[string]string `json:"explanations"`
	Rewrites     map[string]string `json:"rewrites"`
}

var rewriteSections = []string{"headline", "subheadline", "cta", "body_copy"}

// RewriteContent asks the generative service to score, explain and rewrite
// each content section. Schema mismatches return ErrInvalidShape.
func (c *Client) RewriteContent(ctx context.Context, content *models.ExtractedContent) (*models.RewriteResult, error) {
	prompt := buildRewritePrompt(content)

	text, err := c.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var payload rewritePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	section := func(name string) models.SectionRewrite {
		return models.SectionRewrite{
			Score:       payload.Scores[name],
			Explanation: payload.Explanations[name],
			Rewrite:     payload.Rewrites[name],
		}
	}
	return &models.RewriteResult{
		Headline:    section("headline"),
		Subheadline: section("subheadline"),
		CTA:         section("cta"),
		BodyCopy:    section("body_copy"),
	}, nil
}

func validatePayload(p rewritePayload) error {
	if p.Scores == nil || p.Explanations == nil || p.Rewrites == nil {
		return fmt.Errorf("%w: missing top-level key", ErrInvalidShape)
	}
	for _, name := range rewriteSections {
		if _, ok := p.Scores[name]; !ok {
			return fmt.Errorf("%w: scores missing section %q", ErrInvalidShape, name)
		}
		if _, ok := p.Explanations[name]; !ok {
			return fmt.Errorf("%w: explanations missing section %q", ErrInvalidShape, name)
		}
		if _, ok := p.Rewrites[name]; !ok {
			return fmt.Errorf("%w: rewrites missing section %q", ErrInvalidShape, name)
		}
	}
	return nil
}

func buildRewritePrompt(content *models.ExtractedContent) string {
	cta := ""
	if len(content.CTAs) > 0 {
		cta = content.CTAs[0]
	}

	var b strings.Builder
	b.WriteString("You are a conversion copywriting expert. Score each section of this landing page copy ")
	b.WriteString("from 0 to 100, explain the score in one sentence, and propose an improved rewrite.\n\n")
	fmt.Fprintf(&b, "Headline: %s\n", content.Headline)
	fmt.Fprintf(&b, "Subheadline: %s\n", content.Subheadline)
	fmt.Fprintf(&b, "CTA: %s\n", cta)
	fmt.Fprintf(&b, "Body copy: %s\n\n", content.BodyCopy)
	b.WriteString(`Respond with JSON only, in exactly this shape: {"scores": {"headline": 0, "subheadline": 0, "cta": 0, "body_copy": 0}, "explanations": {"headline": "", "subheadline": "", "cta": "", "body_copy": ""}, "rewrites": {"headline": "", "subheadline": "", "cta": "", "body_copy": ""}}`)
	return b.String()
}
