package analyzer

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/copylens/analyzer/models"
)

// Scoring lexicons. Hit counts scale the score in fixed per-hit increments,
// capped per category.
var (
	vagueWords       = lexicon("things", "stuff", "very", "really", "some", "many", "several")
	benefitWords     = lexicon("save", "gain", "improve", "increase", "boost", "enhance", "achieve", "success")
	urgencyWords     = lexicon("now", "today", "limited", "exclusive", "hurry", "instantly")
	socialProofWords = lexicon("trusted", "proven", "expert", "professional", "leading", "top-rated")
	powerWords       = lexicon("guaranteed", "revolutionary", "breakthrough", "transform", "ultimate")
)

var (
	genericCTAPhrases = []string{"click here", "learn more", "read more", "submit"}

	percentagePattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	sentenceEnd       = regexp.MustCompile(`[.!?]+`)
	nonAlpha          = regexp.MustCompile(`[^a-z]`)
)

// scoreHeadline rates headline effectiveness on a 0-100 scale from its
// feature set.
func scoreHeadline(text string, f models.HeadlineFeatures) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	score := 50
	switch {
	case f.OptimalLength:
		score += 15
	case f.WordCount < 6:
		score -= 10
	case f.WordCount > 15:
		score -= 15
	}
	if f.HasNumber {
		score += 15
	}
	if f.HasActionVerb {
		score += 10
	}
	if f.HasEmotionalWords {
		score += 10
	}
	if f.HasQuestion {
		score += 5
	}
	if f.HasNegation {
		score += 8
	}
	if first := []rune(strings.TrimSpace(text)); len(first) > 0 && unicode.IsUpper(first[0]) {
		score += 5
	}

	return clampInt(score, 0, 100)
}

// scoreCTA rates call-to-action effectiveness on a 0-100 scale.
func scoreCTA(text string, f models.CTAFeatures) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	score := 50
	if f.StartsWithVerb {
		score += 20
	}
	if f.HasUrgency {
		score += 15
	}
	if f.HasFreeOffer {
		score += 15
	}
	if f.IsShort {
		score += 15
	} else if f.WordCount > 6 {
		score -= 15
	}

	lower := strings.ToLower(text)
	for _, phrase := range genericCTAPhrases {
		if strings.Contains(lower, phrase) {
			score -= 20
			break
		}
	}

	return clampInt(score, 0, 100)
}

// scoreSpecificity rates how concrete a text is on a 0-10 scale. The proper
// noun count comes from the syntactic parse and is zero in degraded mode.
func scoreSpecificity(text string, properNouns int) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	score := 5.0
	score += math.Min(float64(len(digitRun.FindAllString(text, -1)))*0.5, 3)
	score += math.Min(float64(len(percentagePattern.FindAllString(text, -1)))*1.0, 2)
	score += math.Min(float64(properNouns)*0.3, 2)
	score -= math.Min(float64(countTokensIn(Tokenize(text), vagueWords))*0.5, 3)

	return clampFloat(score, 0, 10)
}

// scorePersuasiveness rates persuasive language on a 0-10 scale.
func scorePersuasiveness(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	tokens := Tokenize(text)
	urgencyHits := countTokensIn(tokens, urgencyWords)
	// "don't miss" is a phrase, not a token.
	urgencyHits += strings.Count(strings.ToLower(text), "don't miss")

	score := 3.0
	score += math.Min(float64(countTokensIn(tokens, benefitWords))*0.8, 3)
	score += math.Min(float64(urgencyHits)*0.7, 2)
	score += math.Min(float64(countTokensIn(tokens, socialProofWords))*0.8, 2)
	score += math.Min(float64(countTokensIn(tokens, powerWords))*0.5, 1)

	return clampFloat(score, 0, 10)
}

// scoreReadability maps Flesch Reading Ease onto a 0-10 scale. Text shorter
// than 10 characters or without words/sentences scores 0.
func scoreReadability(text string) float64 {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < 10 {
		return 0
	}

	words := Tokenize(text)
	sentences := len(sentenceEnd.FindAllString(text, -1))
	if len(words) == 0 || sentences == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	avgWordsPerSentence := float64(len(words)) / float64(sentences)
	avgSyllablesPerWord := float64(syllables) / float64(len(words))
	flesch := 206.835 - 1.015*avgWordsPerSentence - 84.6*avgSyllablesPerWord

	return clampFloat(flesch/10, 0, 10)
}

// countSyllables estimates syllables as vowel groups in the lowercased
// alphabetic-only word, minus one for a trailing "e", floored at 1. Words of
// three letters or fewer count as one syllable.
func countSyllables(word string) int {
	word = nonAlpha.ReplaceAllString(strings.ToLower(word), "")
	if word == "" {
		return 0
	}
	if len(word) <= 3 {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
