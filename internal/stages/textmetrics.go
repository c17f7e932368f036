package stages

import (
	"math"
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`[A-Za-z0-9']+`)
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	htmlTagPattern  = regexp.MustCompile(`(?is)<script.*?</script>|<[^>]+>`)
	vowelRunPattern = regexp.MustCompile(`[aeiouy]+`)
)

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "an": {},
	"and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"because": {}, "been": {}, "but": {}, "by": {}, "can": {}, "could": {},
	"do": {}, "for": {}, "from": {}, "had": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "how": {}, "i": {}, "if": {},
	"in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "just": {},
	"like": {}, "more": {}, "most": {}, "my": {}, "no": {}, "not": {},
	"of": {}, "on": {}, "one": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "out": {}, "over": {}, "she": {}, "so": {}, "some": {},
	"such": {}, "than": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"up": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"which": {}, "who": {}, "will": {}, "with": {}, "would": {}, "you": {},
	"your": {},
}

// tokenize lowercases content and returns its word tokens.
func tokenize(content string) []string {
	return wordPattern.FindAllString(strings.ToLower(content), -1)
}

func countWords(content string) int {
	return len(tokenize(content))
}

// splitSentences returns the non-empty sentences of content.
func splitSentences(content string) []string {
	parts := sentenceSplit.Split(content, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// estimateSyllables approximates syllables as runs of vowels with a silent-e
// correction.
func estimateSyllables(word string) int {
	w := strings.ToLower(word)
	n := len(vowelRunPattern.FindAllString(w, -1))
	if strings.HasSuffix(w, "e") && n > 1 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// readabilityScore computes a Flesch reading-ease score clamped to [0, 100].
func readabilityScore(content string) float64 {
	words := tokenize(content)
	sentences := splitSentences(content)
	if len(words) == 0 || len(sentences) == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += estimateSyllables(w)
	}
	wordsPerSentence := float64(len(words)) / float64(len(sentences))
	syllablesPerWord := float64(syllables) / float64(len(words))
	score := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	return clamp(score, 0, 100)
}

// clarityScore favors moderate sentence length and everyday vocabulary.
func clarityScore(content string) float64 {
	words := tokenize(content)
	sentences := splitSentences(content)
	if len(words) == 0 || len(sentences) == 0 {
		return 0
	}
	avgLen := float64(len(words)) / float64(len(sentences))
	var lengthScore float64
	switch {
	case avgLen <= 8:
		lengthScore = 0.7
	case avgLen <= 20:
		lengthScore = 1.0
	case avgLen <= 30:
		lengthScore = 0.6
	default:
		lengthScore = 0.3
	}
	common := 0
	for _, w := range words {
		if isStopWord(w) || len(w) <= 6 {
			common++
		}
	}
	commonRatio := float64(common) / float64(len(words))
	return round2(clamp((lengthScore*0.6+commonRatio*0.4)*100, 0, 100))
}

// engagementScore rewards direct address, questions and calls to action.
func engagementScore(content string) float64 {
	words := tokenize(content)
	if len(words) == 0 {
		return 0
	}
	score := 40.0
	score += math.Min(float64(strings.Count(content, "?"))*8, 20)
	score += math.Min(float64(strings.Count(content, "!"))*4, 10)
	direct := 0
	for _, w := range words {
		if w == "you" || w == "your" || w == "we" || w == "our" {
			direct++
		}
	}
	score += math.Min(float64(direct)*100/float64(len(words))*4, 30)
	return round2(clamp(score, 0, 100))
}

var transitionWords = []string{
	"however", "therefore", "moreover", "furthermore", "additionally",
	"meanwhile", "consequently", "instead", "finally", "first",
	"second", "next", "then", "overall", "in addition", "for example",
	"as a result", "on the other hand",
}

// flowScore combines transition-word usage with sentence length variety.
func flowScore(content string) float64 {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	transitions := 0
	for _, t := range transitionWords {
		transitions += strings.Count(lower, t)
	}
	score := 50.0
	score += math.Min(float64(transitions)*100/float64(len(sentences)), 30)

	if len(sentences) > 1 {
		lengths := make([]float64, len(sentences))
		var mean float64
		for i, s := range sentences {
			lengths[i] = float64(len(tokenize(s)))
			mean += lengths[i]
		}
		mean /= float64(len(lengths))
		var variance float64
		for _, l := range lengths {
			variance += (l - mean) * (l - mean)
		}
		variance /= float64(len(lengths))
		// Some variety in sentence length reads better than none.
		score += math.Min(math.Sqrt(variance)*4, 20)
	}
	return round2(clamp(score, 0, 100))
}

// sanitizeContent strips markup and control characters from generated text.
func sanitizeContent(content string) string {
	s := htmlTagPattern.ReplaceAllString(content, "")
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
