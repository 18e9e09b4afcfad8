package analyzer

import (
	"regexp"
	"strings"

	"github.com/copylens/analyzer/models"
)

// Fixed lexicons for feature detection. These mirror the signals the scorers
// consume; changing a lexicon changes scores, so additions need test updates.
var (
	headlineActionVerbs = lexicon("get", "start", "discover", "unlock", "learn", "create", "build", "achieve")
	emotionalWords      = lexicon("amazing", "incredible", "powerful", "essential", "ultimate", "revolutionary", "proven")
	negationWords       = lexicon("no", "never", "without", "stop")
	ctaUrgencyWords     = lexicon("now", "today", "instantly", "immediately")
)

// ctaFreeOfferTerms are matched as substrings of the lowercased text since
// two of them are not standalone words.
var ctaFreeOfferTerms = []string{"free", "trial", "0", "no cost"}

var digitRun = regexp.MustCompile(`\d+`)

// verbInfo carries the optional syntactic-parse result for one text unit.
// available is false when the NLP model could not be reached; consumers treat
// that as "feature not detected", never as an error.
type verbInfo struct {
	available bool
	verbs     map[string]struct{}
}

func (v verbInfo) has(word string) bool {
	_, ok := v.verbs[word]
	return ok
}

// Tokenize lowercases text and splits it into word tokens on whitespace,
// dropping empties. This is the always-available tokenization path.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// cleanToken strips leading/trailing punctuation for lexicon membership
// checks.
func cleanToken(tok string) string {
	return strings.Trim(tok, `.,!?:;"'()[]{}`)
}

// headlineFeatures derives the lexical signals for a headline. Verb detection
// prefers the syntactic parse when available and falls back to raw token
// membership.
func headlineFeatures(text string, verbs verbInfo) models.HeadlineFeatures {
	tokens := Tokenize(text)

	hasActionVerb := false
	for _, tok := range tokens {
		word := cleanToken(tok)
		if _, ok := headlineActionVerbs[word]; !ok {
			continue
		}
		if !verbs.available || verbs.has(word) {
			hasActionVerb = true
			break
		}
	}

	return models.HeadlineFeatures{
		HasNumber:         digitRun.MatchString(text),
		HasActionVerb:     hasActionVerb,
		WordCount:         len(tokens),
		HasQuestion:       strings.Contains(text, "?"),
		HasEmotionalWords: anyTokenIn(tokens, emotionalWords),
		HasNegation:       anyTokenIn(tokens, negationWords),
		OptimalLength:     len(tokens) >= 6 && len(tokens) <= 12,
	}
}

// ctaFeatures derives the lexical signals for a call-to-action. When the
// syntactic parser is available a leading action word must also be confirmed
// as a verb; in degraded mode the prefix match alone suffices.
func ctaFeatures(text string, verbs verbInfo) models.CTAFeatures {
	tokens := Tokenize(text)
	lower := strings.ToLower(text)

	startsWithVerb := false
	for _, word := range ctaActionWords {
		if !strings.HasPrefix(lower, word) {
			continue
		}
		if !verbs.available || verbs.has(word) {
			startsWithVerb = true
		}
		break
	}

	hasFreeOffer := false
	for _, term := range ctaFreeOfferTerms {
		if strings.Contains(lower, term) {
			hasFreeOffer = true
			break
		}
	}

	return models.CTAFeatures{
		StartsWithVerb: startsWithVerb,
		HasUrgency:     anyTokenIn(tokens, ctaUrgencyWords),
		HasFreeOffer:   hasFreeOffer,
		WordCount:      len(tokens),
		IsShort:        len(tokens) >= 1 && len(tokens) <= 4,
	}
}

func anyTokenIn(tokens []string, set map[string]struct{}) bool {
	for _, tok := range tokens {
		if _, ok := set[cleanToken(tok)]; ok {
			return true
		}
	}
	return false
}

func countTokensIn(tokens []string, set map[string]struct{}) int {
	n := 0
	for _, tok := range tokens {
		if _, ok := set[cleanToken(tok)]; ok {
			n++
		}
	}
	return n
}

func lexicon(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
