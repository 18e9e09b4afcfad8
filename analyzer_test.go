package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testAnalyzer() *Analyzer {
	return New(Config{
		HTTPTimeout: 5 * time.Second,
		UserAgent:   "copylens-test/1.0",
	})
}

func TestFetchHTMLRejectsScheme(t *testing.T) {
	a := testAnalyzer()

	tests := []struct {
		name string
		url  string
	}{
		{"ftp scheme", "ftp://example.com/page"},
		{"file scheme", "file:///etc/passwd"},
		{"no scheme", "example.com/page"},
		{"unparseable", "http://exa mple.com/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.FetchHTML(context.Background(), tt.url); err == nil {
				t.Errorf("FetchHTML(%q) succeeded, want error", tt.url)
			}
		})
	}
}

func TestFetchHTMLSendsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body><h1>Hi there folks</h1></body></html>"))
	}))
	defer server.Close()

	a := testAnalyzer()
	html, err := a.FetchHTML(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchHTML failed: %v", err)
	}
	if !strings.Contains(html, "Hi there folks") {
		t.Errorf("body not returned: %q", html)
	}
	if gotUA != "copylens-test/1.0" {
		t.Errorf("user agent = %q, want copylens-test/1.0", gotUA)
	}
}

func TestFetchHTMLNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	a := testAnalyzer()
	if _, err := a.FetchHTML(context.Background(), server.URL); err == nil {
		t.Error("expected error for 404 response")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not mention the status code", err)
	}
}

func TestAnalyzePage(t *testing.T) {
	page := `<html><head><title>Acme</title></head><body>
		<h1>Get 3x More Leads Today</h1>
		<h2>Over 10,000 marketing teams trust our proven platform to grow faster.</h2>
		<button>Start Free Trial</button>
		<p>Our platform helps you save time and boost success across every campaign you run.</p>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	a := testAnalyzer()
	content, bundle, html, err := a.AnalyzePage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if content.Headline != "Get 3x More Leads Today" {
		t.Errorf("headline = %q", content.Headline)
	}
	if len(content.CTAs) == 0 || content.CTAs[0] != "Start Free Trial" {
		t.Errorf("ctas = %v", content.CTAs)
	}
	if bundle.Headline.MLScore != 70 {
		t.Errorf("headline score = %d, want 70", bundle.Headline.MLScore)
	}
	if bundle.ModelUsed {
		t.Error("ModelUsed should be false without a sidecar")
	}
	if html != page {
		t.Error("raw markup should be returned unmodified")
	}
}

func TestAnalyzePageFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a := testAnalyzer()
	content, bundle, _, err := a.AnalyzePage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if content != nil || bundle != nil {
		t.Error("failed fetch must not produce partial results")
	}
}
