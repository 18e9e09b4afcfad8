package analyzer

import (
	"strings"
	"testing"
)

func TestExtractHeadline(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "first h1 wins",
			html:     `<html><body><h1>Main Headline</h1><h1>Second Headline</h1></body></html>`,
			expected: "Main Headline",
		},
		{
			name:     "empty h1 skipped",
			html:     `<html><body><h1>  </h1><h1>Real Headline</h1></body></html>`,
			expected: "Real Headline",
		},
		{
			name:     "title fallback",
			html:     `<html><head><title>Page Title</title></head><body><p>no headings</p></body></html>`,
			expected: "Page Title",
		},
		{
			name:     "placeholder when nothing found",
			html:     `<html><body><p>just a paragraph</p></body></html>`,
			expected: "No headline found",
		},
		{
			name:     "whitespace collapsed",
			html:     "<html><body><h1>  Spaced \n\t Out  </h1></body></html>",
			expected: "Spaced Out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := ExtractContent(tt.html)
			if content.Headline != tt.expected {
				t.Errorf("expected headline %q, got %q", tt.expected, content.Headline)
			}
		})
	}
}

func TestExtractHeadlineTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100) // 500 chars
	html := "<html><body><h1>" + long + "</h1></body></html>"

	content := ExtractContent(html)
	if got := len([]rune(content.Headline)); got > 300 {
		t.Errorf("headline length %d exceeds 300 characters", got)
	}
}

func TestExtractSubheadline(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "first h2",
			html:     `<html><body><h1>H</h1><h2>The Subheadline</h2></body></html>`,
			expected: "The Subheadline",
		},
		{
			name:     "paragraph fallback in range",
			html:     `<html><body><h1>H</h1><p>This paragraph is long enough to serve as a subheadline.</p></body></html>`,
			expected: "This paragraph is long enough to serve as a subheadline.",
		},
		{
			name:     "short paragraph rejected",
			html:     `<html><body><h1>H</h1><p>too short</p></body></html>`,
			expected: "No subheadline found",
		},
		{
			name:     "placeholder when nothing found",
			html:     `<html><body><h1>H</h1></body></html>`,
			expected: "No subheadline found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := ExtractContent(tt.html)
			if content.Subheadline != tt.expected {
				t.Errorf("expected subheadline %q, got %q", tt.expected, content.Subheadline)
			}
		})
	}
}

func TestExtractCTAsDocumentOrder(t *testing.T) {
	html := `<html><body><button>Get Started</button><a href="/x">Learn More</a></body></html>`

	content := ExtractContent(html)
	if len(content.CTAs) != 2 {
		t.Fatalf("expected 2 CTAs, got %v", content.CTAs)
	}
	if content.CTAs[0] != "Get Started" || content.CTAs[1] != "Learn More" {
		t.Errorf("expected document order [Get Started, Learn More], got %v", content.CTAs)
	}
}

func TestExtractCTAs(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected []string
	}{
		{
			name:     "role button",
			html:     `<html><body><div role="button">Try It Now</div></body></html>`,
			expected: []string{"Try It Now"},
		},
		{
			name:     "class candidates",
			html:     `<html><body><a class="btn-primary" href="/p">Sign Up</a><span class="cta">Buy Today</span></body></html>`,
			expected: []string{"Sign Up", "Buy Today"},
		},
		{
			name:     "plain link without action word ignored",
			html:     `<html><body><a href="/about">About our company</a></body></html>`,
			expected: []string{"No CTA found"},
		},
		{
			name:     "action link without href ignored",
			html:     `<html><body><a href="">Get Started</a></body></html>`,
			expected: []string{"No CTA found"},
		},
		{
			name:     "too-short text skipped",
			html:     `<html><body><button>Go</button><button>Start Here</button></body></html>`,
			expected: []string{"Start Here"},
		},
		{
			name:     "placeholder when none found",
			html:     `<html><body><p>no buttons here</p></body></html>`,
			expected: []string{"No CTA found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := ExtractContent(tt.html)
			if len(content.CTAs) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, content.CTAs)
			}
			for i := range tt.expected {
				if content.CTAs[i] != tt.expected[i] {
					t.Errorf("CTA %d: expected %q, got %q", i, tt.expected[i], content.CTAs[i])
				}
			}
		})
	}
}

func TestExtractCTAsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 10; i++ {
		b.WriteString("<button>Start Free Trial</button>")
	}
	b.WriteString("</body></html>")

	content := ExtractContent(b.String())
	if len(content.CTAs) != 5 {
		t.Errorf("expected CTA cap of 5, got %d", len(content.CTAs))
	}
}

func TestExtractBodyCopy(t *testing.T) {
	html := `<html><body>
		<h1>H</h1>
		<p>First paragraph with enough text to count for body copy extraction.</p>
		<p>short</p>
		<p>Second paragraph that also carries a reasonable amount of words.</p>
	</body></html>`

	content := ExtractContent(html)
	if !strings.Contains(content.BodyCopy, "First paragraph") {
		t.Errorf("expected body to include first paragraph, got %q", content.BodyCopy)
	}
	if strings.Contains(content.BodyCopy, "short") {
		t.Errorf("expected short paragraph to be skipped, got %q", content.BodyCopy)
	}
	if !strings.Contains(content.BodyCopy, "Second paragraph") {
		t.Errorf("expected body to include second paragraph, got %q", content.BodyCopy)
	}
}

func TestExtractBodyCopyLimit(t *testing.T) {
	para := "<p>" + strings.Repeat("lorem ipsum dolor sit amet ", 20) + "</p>"
	html := "<html><body>" + strings.Repeat(para, 10) + "</body></html>"

	content := ExtractContent(html)
	if got := len([]rune(content.BodyCopy)); got > 800 {
		t.Errorf("body copy length %d exceeds 800 characters", got)
	}
}

func TestExtractBodyCopyPlaceholder(t *testing.T) {
	content := ExtractContent(`<html><body></body></html>`)
	if content.BodyCopy != "No body content found" {
		t.Errorf("expected body placeholder, got %q", content.BodyCopy)
	}
}

func TestExtractScriptAndStyleIgnored(t *testing.T) {
	html := `<html><body>
		<script>var x = "Get Started Now";</script>
		<style>.btn { color: red; }</style>
		<h1>Clean Headline</h1>
	</body></html>`

	content := ExtractContent(html)
	if content.Headline != "Clean Headline" {
		t.Errorf("expected script/style to be stripped, got headline %q", content.Headline)
	}
	if strings.Contains(content.BodyCopy, "var x") {
		t.Errorf("script text leaked into body copy: %q", content.BodyCopy)
	}
}

func TestExtractIdempotent(t *testing.T) {
	html := `<html><body><h1>Get 3x More Leads Today</h1><h2>Join 10,000 teams using our proven platform.</h2>
		<button>Start Free Trial</button>
		<p>Our platform helps marketing teams capture and convert more leads every day.</p></body></html>`

	first := ExtractContent(html)
	second := ExtractContent(html)

	if first.Headline != second.Headline ||
		first.Subheadline != second.Subheadline ||
		first.BodyCopy != second.BodyCopy ||
		len(first.CTAs) != len(second.CTAs) {
		t.Errorf("extraction is not deterministic: %+v vs %+v", first, second)
	}
	for i := range first.CTAs {
		if first.CTAs[i] != second.CTAs[i] {
			t.Errorf("CTA %d differs between runs", i)
		}
	}
}
