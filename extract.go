package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/copylens/analyzer/models"
)

// Extraction limits and fallback text. Every ExtractedContent field is always
// populated; these placeholders stand in when the markup yields nothing.
const (
	maxHeadlineLen    = 300
	maxSubheadlineLen = 500
	maxBodyLen        = 800
	maxCTAs           = 5

	// FallbackHeadline is exported so callers deriving identifiers from the
	// headline (e.g. slugs) can tell a real headline from the stand-in.
	FallbackHeadline = "No headline found"

	fallbackSubheadline = "No subheadline found"
	fallbackCTA         = "No CTA found"
	fallbackBody        = "No body content found"
)

// ctaActionWords qualify a plain link as a call-to-action when its text
// starts with one of them.
var ctaActionWords = []string{
	"get", "start", "try", "buy", "sign", "join", "learn", "download", "subscribe",
}

// ExtractContent parses raw markup into the above-the-fold marketing content.
// It never fails: unparseable or empty markup degrades to placeholder values.
// Calling it twice on identical markup yields identical output.
func ExtractContent(html string) *models.ExtractedContent {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &models.ExtractedContent{
			Headline:    FallbackHeadline,
			Subheadline: fallbackSubheadline,
			CTAs:        []string{fallbackCTA},
			BodyCopy:    fallbackBody,
		}
	}

	// Non-visible and non-prose content must never reach the scorers.
	doc.Find("script, style, noscript, iframe").Remove()

	return &models.ExtractedContent{
		Headline:    extractHeadline(doc),
		Subheadline: extractSubheadline(doc),
		CTAs:        extractCTAs(doc),
		BodyCopy:    extractBodyCopy(doc),
	}
}

// extractHeadline returns the first non-empty h1, falling back to the page
// title.
func extractHeadline(doc *goquery.Document) string {
	var headline string
	doc.Find("h1").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := collapseWhitespace(s.Text()); text != "" {
			headline = text
			return false
		}
		return true
	})

	if headline == "" {
		headline = collapseWhitespace(doc.Find("title").First().Text())
	}
	if headline == "" {
		return FallbackHeadline
	}
	return truncate(headline, maxHeadlineLen)
}

// extractSubheadline returns the first non-empty h2, falling back to the
// first paragraph that reads like a subheadline (between 20 and 300 chars).
func extractSubheadline(doc *goquery.Document) string {
	var sub string
	doc.Find("h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := collapseWhitespace(s.Text()); text != "" {
			sub = text
			return false
		}
		return true
	})

	if sub == "" {
		doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := collapseWhitespace(s.Text())
			if n := len([]rune(text)); n > 20 && n < 300 {
				sub = text
				return false
			}
			return true
		})
	}

	if sub == "" {
		return fallbackSubheadline
	}
	return truncate(sub, maxSubheadlineLen)
}

// extractCTAs collects call-to-action texts in document order: button
// elements, ARIA button roles, links with button-like or CTA-like class
// markers, and plain links whose text starts with a known action word.
func extractCTAs(doc *goquery.Document) []string {
	var ctas []string
	selector := `button, [role=button], [class*=btn], [class*=button], [class*=cta], a`
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isCTACandidate(s) {
			return true
		}
		text := collapseWhitespace(s.Text())
		if n := len([]rune(text)); n <= 2 || n >= 100 {
			return true
		}
		ctas = append(ctas, text)
		return len(ctas) < maxCTAs
	})

	if len(ctas) == 0 {
		return []string{fallbackCTA}
	}
	return ctas
}

func isCTACandidate(s *goquery.Selection) bool {
	if goquery.NodeName(s) == "button" {
		return true
	}
	if role, _ := s.Attr("role"); role == "button" {
		return true
	}

	class, _ := s.Attr("class")
	class = strings.ToLower(class)
	if strings.Contains(class, "btn") || strings.Contains(class, "button") || strings.Contains(class, "cta") {
		return true
	}

	// Plain links count only when they point somewhere and lead with an
	// action word.
	if goquery.NodeName(s) != "a" {
		return false
	}
	href, _ := s.Attr("href")
	if strings.TrimSpace(href) == "" {
		return false
	}
	text := strings.ToLower(strings.TrimSpace(s.Text()))
	for _, word := range ctaActionWords {
		if strings.HasPrefix(text, word) {
			return true
		}
	}
	return false
}

// extractBodyCopy joins the first substantial paragraphs, falling back to the
// page's full visible text.
func extractBodyCopy(doc *goquery.Document) string {
	var (
		b     strings.Builder
		taken int
	)
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseWhitespace(s.Text())
		if len([]rune(text)) <= 20 {
			return true
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
		taken++
		return taken < 10 && len([]rune(b.String())) <= 500
	})

	body := b.String()
	if body == "" {
		body = collapseWhitespace(doc.Text())
	}
	if body == "" {
		return fallbackBody
	}
	return truncate(body, maxBodyLen)
}

// collapseWhitespace flattens runs of whitespace into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate hard-caps a string at n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
