package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/copylens/analyzer/models"
)

// Confidence tags on the overall score.
const (
	ConfidenceHigh     = "High"
	ConfidenceMedium   = "Medium (rule-based)"
	ConfidenceFallback = "Low (fallback)"
)

// Overall score weights per section.
const (
	weightHeadline    = 0.30
	weightSubheadline = 0.25
	weightCTA         = 0.25
	weightBody        = 0.20
)

// predictionBand maps a 0-100 score onto a three-tier qualitative prediction
// with fixed thresholds at 70 and 50.
func predictionBand(score int, high, moderate, low string) string {
	switch {
	case score >= 70:
		return high
	case score >= 50:
		return moderate
	default:
		return low
	}
}

// AnalyzeLinguistics turns extracted content into a complete score bundle.
// It never fails: an unexpected panic anywhere in scoring is logged and
// converted into the fixed neutral fallback bundle so the pipeline always
// completes.
func (a *Analyzer) AnalyzeLinguistics(ctx context.Context, content *models.ExtractedContent) (bundle *models.ScoreBundle) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scoring pipeline panicked, returning fallback bundle", "panic", fmt.Sprint(r))
			bundle = FallbackBundle()
		}
	}()

	// Model-backed sentiment for the three prose sections runs concurrently;
	// the bundle is only assembled once all three have resolved. A panic
	// inside a section goroutine is captured and re-raised here so the
	// deferred recover above still produces the fallback bundle.
	var (
		wg                              sync.WaitGroup
		headlineSent, subSent, bodySent models.Sentiment
		headlineByML, subByML, bodyByML bool

		panicMu  sync.Mutex
		panicVal any
	)
	for _, section := range []struct {
		text string
		out  *models.Sentiment
		used *bool
	}{
		{content.Headline, &headlineSent, &headlineByML},
		{content.Subheadline, &subSent, &subByML},
		{content.BodyCopy, &bodySent, &bodyByML},
	} {
		wg.Add(1)
		go func(text string, out *models.Sentiment, used *bool) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panicMu.Lock()
					panicVal = r
					panicMu.Unlock()
				}
			}()
			*out, *used = a.resolveSentiment(ctx, text)
		}(section.text, section.out, section.used)
	}
	wg.Wait()
	if panicVal != nil {
		panic(panicVal)
	}
	modelUsed := headlineByML && subByML && bodyByML

	// Headline.
	headlineVerbs, _ := a.parseVerbs(ctx, content.Headline)
	hFeatures := headlineFeatures(content.Headline, headlineVerbs)
	hScore := scoreHeadline(content.Headline, hFeatures)
	headline := models.HeadlineScore{
		MLScore:   hScore,
		Sentiment: headlineSent,
		Features:  hFeatures,
		Prediction: predictionBand(hScore,
			"High engagement expected", "Moderate engagement expected", "Low engagement expected"),
	}

	// Subheadline composite: readability + specificity.
	_, subProperNouns := a.parseVerbs(ctx, content.Subheadline)
	subReadability := scoreReadability(content.Subheadline)
	subSpecificity := scoreSpecificity(content.Subheadline, subProperNouns)
	subComposite := int(math.Round((subReadability + subSpecificity) * 5))
	subheadline := models.SubheadlineScore{
		MLScore:     subComposite,
		Readability: int(math.Round(subReadability)),
		Specificity: int(math.Round(subSpecificity)),
		Sentiment:   subSent,
		Prediction: predictionBand(subComposite,
			"Strong supporting copy", "Decent supporting copy", "Weak supporting copy"),
	}

	// CTAs; the first one carries the overall weight.
	ctas := make([]models.CTAScore, 0, len(content.CTAs))
	for _, text := range content.CTAs {
		verbs, _ := a.parseVerbs(ctx, text)
		features := ctaFeatures(text, verbs)
		score := scoreCTA(text, features)
		ctas = append(ctas, models.CTAScore{
			Text:     text,
			MLScore:  score,
			Features: features,
			Prediction: predictionBand(score,
				"High click-through potential", "Moderate click-through potential", "Low click-through potential"),
		})
	}

	// Body composite: readability + persuasiveness.
	bodyReadability := scoreReadability(content.BodyCopy)
	bodyPersuasiveness := scorePersuasiveness(content.BodyCopy)
	bodyComposite := int(math.Round((bodyReadability + bodyPersuasiveness) * 5))
	body := models.BodyScore{
		MLScore:        bodyComposite,
		Readability:    int(math.Round(bodyReadability)),
		Persuasiveness: int(math.Round(bodyPersuasiveness)),
		Sentiment:      bodySent,
		Prediction: predictionBand(bodyComposite,
			"Strong body copy", "Decent body copy", "Weak body copy"),
	}

	ctaScore := ctas[0].MLScore
	overall := int(math.Round(
		float64(hScore)*weightHeadline +
			float64(subComposite)*weightSubheadline +
			float64(ctaScore)*weightCTA +
			float64(bodyComposite)*weightBody))

	confidence := ConfidenceMedium
	if modelUsed {
		confidence = ConfidenceHigh
	}

	bundle = &models.ScoreBundle{
		Headline:    headline,
		Subheadline: subheadline,
		CTAs:        ctas,
		Body:        body,
		Overall: models.OverallScore{
			Score: overall,
			Prediction: predictionBand(overall,
				"High conversion potential", "Moderate conversion potential", "Low conversion potential"),
			Confidence:  confidence,
			Suggestions: suggestions(headline, subheadline, ctas[0], body),
		},
		ModelUsed: modelUsed,
	}
	return bundle
}

// suggestions proposes one improvement per missing feature flag, but only
// for sections scoring below 70.
func suggestions(h models.HeadlineScore, sub models.SubheadlineScore, cta models.CTAScore, body models.BodyScore) []string {
	var out []string

	if h.MLScore < 70 {
		if !h.Features.HasNumber {
			out = append(out, "Add a specific number or statistic to the headline")
		}
		if !h.Features.HasActionVerb {
			out = append(out, "Start the headline with an action verb")
		}
		if !h.Features.OptimalLength {
			out = append(out, "Keep the headline between 6 and 12 words")
		}
		if !h.Features.HasEmotionalWords {
			out = append(out, "Work an emotional trigger word into the headline")
		}
	}

	if cta.MLScore < 70 {
		if !cta.Features.StartsWithVerb {
			out = append(out, "Begin the call to action with an action verb")
		}
		if !cta.Features.HasUrgency {
			out = append(out, `Add urgency to the call to action, e.g. "now" or "today"`)
		}
		if !cta.Features.IsShort {
			out = append(out, "Shorten the call to action to four words or fewer")
		}
	}

	if sub.MLScore < 70 {
		if sub.Readability < 6 {
			out = append(out, "Use shorter sentences in the subheadline")
		}
		if sub.Specificity < 6 {
			out = append(out, "Add concrete numbers or named specifics to the subheadline")
		}
	}

	if body.MLScore < 70 {
		if body.Persuasiveness < 6 {
			out = append(out, "Use benefit-led language in the body copy")
		}
		if body.Readability < 6 {
			out = append(out, "Simplify the body copy with shorter sentences")
		}
	}

	return out
}

// FallbackBundle is the fixed neutral result returned when scoring fails
// unexpectedly: every section at 50, neutral sentiment, low confidence.
func FallbackBundle() *models.ScoreBundle {
	neutral := models.Sentiment{Label: models.SentimentNeutral, Score: 0.5}
	return &models.ScoreBundle{
		Headline: models.HeadlineScore{
			MLScore:    50,
			Sentiment:  neutral,
			Prediction: "Moderate engagement expected",
		},
		Subheadline: models.SubheadlineScore{
			MLScore:    50,
			Sentiment:  neutral,
			Prediction: "Decent supporting copy",
		},
		CTAs: []models.CTAScore{{
			MLScore:    50,
			Prediction: "Moderate click-through potential",
		}},
		Body: models.BodyScore{
			MLScore:    50,
			Sentiment:  neutral,
			Prediction: "Decent body copy",
		},
		Overall: models.OverallScore{
			Score:      50,
			Prediction: "Moderate conversion potential",
			Confidence: ConfidenceFallback,
		},
		ModelUsed: false,
	}
}
