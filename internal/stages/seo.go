package stages

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// SEOAnalysisInput carries the content and target keywords to score.
type SEOAnalysisInput struct {
	ContentID      string   `json:"content_id"`
	Content        string   `json:"content"`
	TargetKeywords []string `json:"target_keywords"`
}

// SEOAnalysisStage measures keyword density, heading structure and
// readability of a piece of content and suggests improvements.
type SEOAnalysisStage struct {
	logger Logger
}

func NewSEOAnalysisStage(logger Logger) *SEOAnalysisStage {
	return &SEOAnalysisStage{logger: logger}
}

func (s *SEOAnalysisStage) Type() models.StepType {
	return models.SEOAnalysisStepType
}

func (s *SEOAnalysisStage) Validate(input map[string]interface{}) error {
	var in SEOAnalysisInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid seo analysis input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

func (s *SEOAnalysisStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in SEOAnalysisInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid seo analysis input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errors.New("content is required")
	}

	density := keywordDensity(in.Content, in.TargetKeywords)
	headings := headingStructure(in.Content)
	readability := round2(readabilityScore(in.Content))
	suggestions := seoSuggestions(in, density, headings, readability)
	score := seoScore(density, headings, readability, suggestions)

	s.logger.Debugf("SEO analysis for %s: score=%.2f suggestions=%d", in.ContentID, score, len(suggestions))

	return map[string]interface{}{
		"content_id":              in.ContentID,
		"seo_score":               score,
		"keyword_density":         density,
		"heading_structure":       headings,
		"readability_score":       readability,
		"improvement_suggestions": suggestions,
		"recommended_keywords":    recommendKeywords(in.Content, in.TargetKeywords),
	}, nil
}

// keywordDensity returns each target keyword's share of the content in
// percent, rounded to two decimals.
func keywordDensity(content string, keywords []string) map[string]float64 {
	words := tokenize(content)
	density := make(map[string]float64, len(keywords))
	if len(words) == 0 {
		return density
	}
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		count := strings.Count(lower, k)
		density[k] = round2(float64(count) * 100 / float64(len(words)))
	}
	return density
}

var headingPattern = regexp.MustCompile(`(?m)^(#{1,3})\s+`)

// headingStructure counts markdown headings by level.
func headingStructure(content string) map[string]int {
	counts := map[string]int{"h1": 0, "h2": 0, "h3": 0}
	for _, m := range headingPattern.FindAllStringSubmatch(content, -1) {
		counts[fmt.Sprintf("h%d", len(m[1]))]++
	}
	return counts
}

func seoSuggestions(in SEOAnalysisInput, density map[string]float64, headings map[string]int, readability float64) []string {
	var suggestions []string
	wc := countWords(in.Content)
	if wc < 300 {
		suggestions = append(suggestions, "Content is short; aim for at least 300 words for better ranking")
	}
	if headings["h1"] == 0 {
		suggestions = append(suggestions, "Add a top-level heading containing the primary keyword")
	}
	if headings["h2"] == 0 && wc > 300 {
		suggestions = append(suggestions, "Break the content into sections with h2 subheadings")
	}
	for kw, d := range density {
		if d == 0 {
			suggestions = append(suggestions, fmt.Sprintf("Target keyword %q does not appear in the content", kw))
		} else if d > 3 {
			suggestions = append(suggestions, fmt.Sprintf("Keyword %q density %.2f%% looks like stuffing; keep it under 3%%", kw, d))
		}
	}
	if readability < 50 {
		suggestions = append(suggestions, "Readability is low; shorten sentences and prefer simpler words")
	}
	sort.Strings(suggestions)
	return suggestions
}

// seoScore starts from a perfect score and deducts per finding.
func seoScore(density map[string]float64, headings map[string]int, readability float64, suggestions []string) float64 {
	score := 100.0
	score -= float64(len(suggestions)) * 8
	inRange := 0
	for _, d := range density {
		if d >= 0.5 && d <= 3 {
			inRange++
		}
	}
	if len(density) > 0 {
		score -= (1 - float64(inRange)/float64(len(density))) * 10
	}
	if headings["h1"] > 1 {
		score -= 5
	}
	score -= (100 - readability) * 0.1
	return round2(clamp(score, 0, 100))
}

// recommendKeywords surfaces frequent substantive words that are not already
// targeted.
func recommendKeywords(content string, targets []string) []string {
	targeted := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		targeted[strings.ToLower(t)] = struct{}{}
	}
	freq := map[string]int{}
	for _, w := range tokenize(content) {
		if len(w) <= 3 || isStopWord(w) {
			continue
		}
		if _, ok := targeted[w]; ok {
			continue
		}
		freq[w]++
	}
	type wc struct {
		word  string
		count int
	}
	candidates := make([]wc, 0, len(freq))
	for w, c := range freq {
		if c >= 2 {
			candidates = append(candidates, wc{w, c})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		return candidates[i].word < candidates[j].word
	})
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.word
	}
	return out
}
