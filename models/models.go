package models

import "time"

// Status enumerates the lifecycle states of an analysis job.
type Status string

const (
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Sentiment labels shared by the model-backed and lexicon paths.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// ExtractedContent is the above-the-fold marketing copy pulled from a page.
// Every field is always populated; extraction substitutes fallback text when
// the markup yields nothing.
type ExtractedContent struct {
	Headline    string   `json:"headline"`
	Subheadline string   `json:"subheadline"`
	CTAs        []string `json:"ctas"`
	BodyCopy    string   `json:"body_copy"`
}

// HeadlineFeatures holds the lexical signals computed once per headline.
type HeadlineFeatures struct {
	HasNumber         bool `json:"has_number"`
	HasActionVerb     bool `json:"has_action_verb"`
	WordCount         int  `json:"word_count"`
	HasQuestion       bool `json:"has_question"`
	HasEmotionalWords bool `json:"has_emotional_words"`
	HasNegation       bool `json:"has_negation"`
	OptimalLength     bool `json:"optimal_length"`
}

// CTAFeatures holds the lexical signals computed once per call-to-action.
type CTAFeatures struct {
	StartsWithVerb bool `json:"starts_with_verb"`
	HasUrgency     bool `json:"has_urgency"`
	HasFreeOffer   bool `json:"has_free_offer"`
	WordCount      int  `json:"word_count"`
	IsShort        bool `json:"is_short"`
}

// Sentiment is the path-independent output shape of the sentiment resolver.
type Sentiment struct {
	Label string  `json:"label"` // POSITIVE, NEGATIVE or NEUTRAL
	Score float64 `json:"score"` // confidence in [0,1]
}

// HeadlineScore scores the extracted headline.
type HeadlineScore struct {
	MLScore    int              `json:"ml_score"` // effectiveness 0-100
	Sentiment  Sentiment        `json:"sentiment"`
	Features   HeadlineFeatures `json:"features"`
	Prediction string           `json:"prediction"`
}

// SubheadlineScore scores the extracted subheadline.
type SubheadlineScore struct {
	MLScore     int       `json:"ml_score"` // composite 0-100
	Readability int       `json:"readability"`
	Specificity int       `json:"specificity"`
	Sentiment   Sentiment `json:"sentiment"`
	Prediction  string    `json:"prediction"`
}

// CTAScore scores a single call-to-action.
type CTAScore struct {
	Text       string      `json:"text"`
	MLScore    int         `json:"ml_score"` // effectiveness 0-100
	Features   CTAFeatures `json:"features"`
	Prediction string      `json:"prediction"`
}

// BodyScore scores the extracted body copy.
type BodyScore struct {
	MLScore        int       `json:"ml_score"` // composite 0-100
	Readability    int       `json:"readability"`
	Persuasiveness int       `json:"persuasiveness"`
	Sentiment      Sentiment `json:"sentiment"`
	Prediction     string    `json:"prediction"`
}

// OverallScore aggregates the per-section scores.
type OverallScore struct {
	Score       int      `json:"score"` // 0-100 weighted
	Prediction  string   `json:"prediction"`
	Confidence  string   `json:"confidence"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ScoreBundle is the complete rule-based analysis of one page, computed fresh
// per request and written once into the persisted record.
type ScoreBundle struct {
	Headline    HeadlineScore    `json:"headline"`
	Subheadline SubheadlineScore `json:"subheadline"`
	CTAs        []CTAScore       `json:"ctas"`
	Body        BodyScore        `json:"body"`
	Overall     OverallScore     `json:"overall"`
	ModelUsed   bool             `json:"model_used"` // pretrained sentiment path succeeded
}

// SectionRewrite is the generative service's output for a single section.
type SectionRewrite struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
	Rewrite     string `json:"rewrite"`
}

// RewriteResult is the validated {scores, explanations, rewrites} payload
// returned by the generative rewrite service.
type RewriteResult struct {
	Headline    SectionRewrite `json:"headline"`
	Subheadline SectionRewrite `json:"subheadline"`
	CTA         SectionRewrite `json:"cta"`
	BodyCopy    SectionRewrite `json:"body_copy"`
}

// Analysis is the persisted job record for one analysis run.
type Analysis struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	Slug           string            `json:"slug"`
	Status         Status            `json:"status"`
	Error          string            `json:"error,omitempty"`
	Content        *ExtractedContent `json:"content,omitempty"`
	Scores         *ScoreBundle      `json:"scores,omitempty"`
	Rewrite        *RewriteResult    `json:"rewrite,omitempty"`
	SnapshotPath   string            `json:"snapshot_path,omitempty"`
	Cached         bool              `json:"cached,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	ProcessingTime float64           `json:"processing_time_seconds,omitempty"`
}

// OllamaRequest represents a request to the Ollama generate API.
type OllamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// OllamaResponse represents a response from the Ollama generate API.
type OllamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}

// AnalyzeRequest is the API payload submitting a page for analysis.
type AnalyzeRequest struct {
	URL   string `json:"url"`
	Force bool   `json:"force"` // Re-analyze even if a completed result exists
}

// AnalyzeResponse acknowledges a queued analysis.
type AnalyzeResponse struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Status Status `json:"status"`
}
