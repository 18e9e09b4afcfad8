// Package nlp is a thin client for the optional NLP inference sidecar that
// serves the pretrained sentiment classifier and part-of-speech tagger. The
// sidecar is probed once per process; when it is unreachable the analyzer
// runs in lexicon-only degraded mode.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/copylens/analyzer/models"
)

// DefaultBaseURL is where the sidecar listens when run alongside the API.
const DefaultBaseURL = "http://localhost:8600"

const defaultTimeout = 15 * time.Second

// Client talks to the NLP inference sidecar.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a sidecar client for the given base URL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// inferenceRequest is the shared request shape of both sidecar endpoints.
type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// classification mirrors one label/score pair from the text-classification
// pipeline.
type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Token is one tagged token from the part-of-speech endpoint.
type Token struct {
	Word string `json:"word"`
	Tag  string `json:"tag"`
}

// Ping reports whether the sidecar is up. Callers memoize the result for the
// process lifetime.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nlp sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nlp sidecar unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// Classify runs the pretrained sentiment classifier over text and returns
// the top label with its confidence.
func (c *Client) Classify(ctx context.Context, text string) (models.Sentiment, error) {
	var rows [][]classification
	if err := c.post(ctx, "/classify", text, &rows); err != nil {
		return models.Sentiment{}, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return models.Sentiment{}, fmt.Errorf("classify: empty response")
	}

	best := rows[0][0]
	for _, cand := range rows[0][1:] {
		if cand.Score > best.Score {
			best = cand
		}
	}
	return models.Sentiment{Label: best.Label, Score: best.Score}, nil
}

// Tags runs the part-of-speech tagger over text.
func (c *Client) Tags(ctx context.Context, text string) ([]Token, error) {
	var tokens []Token
	if err := c.post(ctx, "/pos", text, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (c *Client) post(ctx context.Context, path, text string, out interface{}) error {
	body, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nlp request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nlp request failed: status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
