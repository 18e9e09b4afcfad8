// Package analyzer ingests a webpage, extracts its above-the-fold marketing
// content and scores it for persuasiveness with rule-based linguistic
// heuristics, optionally sharpened by a pretrained sentiment/POS model served
// by an NLP sidecar. The rule-based core is designed to never be the cause of
// a visible failure: only the fetch step (and the external rewrite service)
// can fail an analysis.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/copylens/analyzer/models"
	"github.com/copylens/analyzer/nlp"
)

// Config contains analyzer configuration.
type Config struct {
	HTTPTimeout time.Duration // hard timeout on the markup fetch
	UserAgent   string
	NLPBaseURL  string // optional sentiment/POS sidecar; empty disables the model path
}

// DefaultConfig returns default analyzer configuration.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout: 10 * time.Second,
		UserAgent:   "Mozilla/5.0 (compatible; CopyLens/1.0)",
	}
}

// Analyzer runs the fetch -> extract -> score pipeline. It is created once
// per process and holds the lazily-probed pretrained model handle; analysis
// runs themselves are stateless and safe to run concurrently.
type Analyzer struct {
	config     Config
	httpClient *http.Client
	nlpClient  *nlp.Client

	// modelAvailable is read by health and metrics reporting while analyses
	// run concurrently, so it must be atomic.
	modelOnce      sync.Once
	modelAvailable atomic.Bool
}

// New creates a new Analyzer. The NLP sidecar is not contacted until the
// first analysis run.
func New(config Config) *Analyzer {
	a := &Analyzer{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	if config.NLPBaseURL != "" {
		a.nlpClient = nlp.NewClient(config.NLPBaseURL)
	}
	return a
}

// ModelAvailable reports whether the pretrained model path is active for
// this process. The answer is only meaningful after the first analysis run.
func (a *Analyzer) ModelAvailable() bool {
	return a.modelAvailable.Load()
}

// FetchHTML retrieves the raw markup for a URL. Only http and https are
// allowed; non-2xx responses, timeouts and network failures surface as a
// single descriptive error and are never retried here.
func (a *Analyzer) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must be http or https")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", a.config.UserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}

// AnalyzePage runs the full pipeline for one URL and returns the extracted
// content, its score bundle and the raw markup for archival. The only error
// source is the fetch step; extraction and scoring degrade instead of
// failing.
func (a *Analyzer) AnalyzePage(ctx context.Context, targetURL string) (*models.ExtractedContent, *models.ScoreBundle, string, error) {
	html, err := a.FetchHTML(ctx, targetURL)
	if err != nil {
		return nil, nil, "", err
	}

	content := ExtractContent(html)
	bundle := a.AnalyzeLinguistics(ctx, content)
	return content, bundle, html, nil
}
