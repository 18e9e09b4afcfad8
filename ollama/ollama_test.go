package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/copylens/analyzer/models"
)

func generateServer(t *testing.T, completion string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req models.OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Format != "json" {
			t.Errorf("expected json format, got %q", req.Format)
		}
		json.NewEncoder(w).Encode(models.OllamaResponse{Response: completion, Done: true})
	}))
}

func TestRewriteContent(t *testing.T) {
	completion := `{
		"scores": {"headline": 72, "subheadline": 60, "cta": 85, "body_copy": 55},
		"explanations": {"headline": "Clear but generic.", "subheadline": "Lacks specificity.", "cta": "Strong verb.", "body_copy": "Too long."},
		"rewrites": {"headline": "Ship 3x Faster", "subheadline": "Cut review time in half.", "cta": "Start Free Trial", "body_copy": "Shorter body."}
	}`
	server := generateServer(t, completion)
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	result, err := client.RewriteContent(context.Background(), &models.ExtractedContent{
		Headline:    "Our Product",
		Subheadline: "It does things",
		CTAs:        []string{"Learn More"},
		BodyCopy:    "Some body copy here.",
	})
	if err != nil {
		t.Fatalf("RewriteContent returned error: %v", err)
	}
	if result.Headline.Score != 72 {
		t.Errorf("expected headline score 72, got %d", result.Headline.Score)
	}
	if result.CTA.Rewrite != "Start Free Trial" {
		t.Errorf("expected CTA rewrite, got %q", result.CTA.Rewrite)
	}
	if result.BodyCopy.Explanation != "Too long." {
		t.Errorf("expected body explanation, got %q", result.BodyCopy.Explanation)
	}
}

func TestRewriteContentInvalidShape(t *testing.T) {
	cases := []struct {
		name       string
		completion string
	}{
		{"not json", "here is my analysis of the page"},
		{"missing rewrites key", `{"scores": {"headline": 1, "subheadline": 1, "cta": 1, "body_copy": 1}, "explanations": {"headline": "", "subheadline": "", "cta": "", "body_copy": ""}}`},
		{"missing section", `{"scores": {"headline": 1}, "explanations": {"headline": ""}, "rewrites": {"headline": ""}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := generateServer(t, tc.completion)
			defer server.Close()

			client := NewClient(server.URL, "test-model")
			_, err := client.RewriteContent(context.Background(), &models.ExtractedContent{Headline: "h"})
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("expected ErrInvalidShape, got %v", err)
			}
		})
	}
}

func TestGenerateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	if _, err := client.Generate(context.Background(), "hello"); err == nil {
		t.Error("expected error for 500 response")
	}
}
