package analyzer

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/copylens/analyzer/models"
)

// Fixed sentiment lexicons for the rule-based fallback path.
var (
	positiveWords = lexicon(
		"amazing", "awesome", "best", "brilliant", "delightful", "easy",
		"effective", "excellent", "fantastic", "good", "great", "happy",
		"incredible", "love", "outstanding", "perfect", "powerful",
		"remarkable", "superb", "wonderful",
	)
	negativeWords = lexicon(
		"annoying", "awful", "bad", "broken", "confusing", "difficult",
		"disappointing", "expensive", "fail", "failure", "hate", "poor",
		"problem", "slow", "terrible", "worse", "worst", "wrong",
	)
)

// lexiconSentiment is the always-available fallback: positive and negative
// lexicon hit counts decide the label, with confidence growing per hit.
func lexiconSentiment(text string) models.Sentiment {
	tokens := Tokenize(text)
	pos := countTokensIn(tokens, positiveWords)
	neg := countTokensIn(tokens, negativeWords)

	switch {
	case pos > neg:
		return models.Sentiment{
			Label: models.SentimentPositive,
			Score: math.Min(0.6+0.05*float64(pos), 1.0),
		}
	case neg > pos:
		return models.Sentiment{
			Label: models.SentimentNegative,
			Score: math.Min(0.6+0.05*float64(neg), 1.0),
		}
	default:
		return models.Sentiment{Label: models.SentimentNeutral, Score: 0.5}
	}
}

// modelReady reports whether the pretrained model sidecar is usable. The
// probe runs at most once per process; the outcome is memoized so later runs
// never retry a failed initialization.
func (a *Analyzer) modelReady(ctx context.Context) bool {
	a.modelOnce.Do(func() {
		if a.nlpClient == nil {
			return
		}
		if err := a.nlpClient.Ping(ctx); err != nil {
			slog.Warn("nlp sidecar unavailable, using lexicon fallback for this process", "error", err)
			return
		}
		a.modelAvailable.Store(true)
	})
	return a.modelAvailable.Load()
}

// resolveSentiment classifies one text section, preferring the pretrained
// model and falling back to the lexicon on any failure. The second return
// reports whether the model path was used.
func (a *Analyzer) resolveSentiment(ctx context.Context, text string) (models.Sentiment, bool) {
	if a.modelReady(ctx) {
		s, err := a.nlpClient.Classify(ctx, text)
		if err == nil {
			return s, true
		}
		slog.Warn("sentiment classification failed, using lexicon fallback", "error", err)
	}
	return lexiconSentiment(text), false
}

// parseVerbs fetches the syntactic parse for one text unit. Absence of the
// model degrades to an unavailable verbInfo, which feature extraction treats
// as "not detected".
func (a *Analyzer) parseVerbs(ctx context.Context, text string) (verbInfo, int) {
	if !a.modelReady(ctx) {
		return verbInfo{}, 0
	}

	tokens, err := a.nlpClient.Tags(ctx, text)
	if err != nil {
		slog.Warn("pos tagging failed, treating parse features as absent", "error", err)
		return verbInfo{}, 0
	}

	verbs := make(map[string]struct{})
	properNouns := 0
	for _, tok := range tokens {
		switch tok.Tag {
		case "VERB":
			verbs[cleanToken(strings.ToLower(tok.Word))] = struct{}{}
		case "PROPN":
			properNouns++
		}
	}
	return verbInfo{available: true, verbs: verbs}, properNouns
}
