package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// EthicsCheckInput carries content to screen, the checks to run and the
// sources to compare against for plagiarism.
type EthicsCheckInput struct {
	ContentID        string   `json:"content_id"`
	Content          string   `json:"content"`
	CheckTypes       []string `json:"check_types"`
	ReferenceSources []string `json:"reference_sources"`
}

// EthicsCheckStage screens content for plagiarism against reference sources,
// for harmful language and for policy violations.
type EthicsCheckStage struct {
	logger Logger
}

func NewEthicsCheckStage(logger Logger) *EthicsCheckStage {
	return &EthicsCheckStage{logger: logger}
}

func (s *EthicsCheckStage) Type() models.StepType {
	return models.EthicsCheckStepType
}

var defaultCheckTypes = []string{"plagiarism", "ethics", "policy"}

func (s *EthicsCheckStage) Validate(input map[string]interface{}) error {
	var in EthicsCheckInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid ethics check input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return errors.New("content is required")
	}
	for _, ct := range in.CheckTypes {
		switch ct {
		case "plagiarism", "ethics", "policy":
		default:
			return errors.Errorf("unknown check type: %s", ct)
		}
	}
	return nil
}

func (s *EthicsCheckStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in EthicsCheckInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid ethics check input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errors.New("content is required")
	}
	checks := in.CheckTypes
	if len(checks) == 0 {
		checks = defaultCheckTypes
	}

	var (
		plagiarismDetected bool
		similarity         float64
		concerns           []string
		violations         []string
		recommendations    []string
	)

	for _, ct := range checks {
		switch ct {
		case "plagiarism":
			similarity = maxSimilarity(in.Content, in.ReferenceSources)
			plagiarismDetected = similarity > 0.6
			if plagiarismDetected {
				recommendations = append(recommendations,
					fmt.Sprintf("Content overlaps %.0f%% with a reference source; rewrite in original wording", similarity*100))
			}
		case "ethics":
			concerns = ethicsConcerns(in.Content)
			for _, c := range concerns {
				recommendations = append(recommendations, "Review flagged passage: "+c)
			}
		case "policy":
			violations = policyViolations(in.Content)
			for _, v := range violations {
				recommendations = append(recommendations, "Remove or substantiate claim: "+v)
			}
		}
	}

	risk := riskLevel(plagiarismDetected, concerns, violations)
	s.logger.Infof("Ethics check for %s: risk=%s", in.ContentID, risk)

	return map[string]interface{}{
		"content_id":          in.ContentID,
		"plagiarism_detected": plagiarismDetected,
		"similarity_score":    round2(similarity),
		"ethics_concerns":     concerns,
		"policy_violations":   violations,
		"risk_level":          risk,
		"confidence":          0.95,
		"recommendations":     recommendations,
		"checks_performed":    checks,
	}, nil
}

// maxSimilarity returns the highest token-bigram Jaccard similarity between
// the content and any reference source.
func maxSimilarity(content string, sources []string) float64 {
	cb := bigrams(content)
	if len(cb) == 0 {
		return 0
	}
	var max float64
	for _, src := range sources {
		sb := bigrams(src)
		if len(sb) == 0 {
			continue
		}
		inter := 0
		for b := range cb {
			if _, ok := sb[b]; ok {
				inter++
			}
		}
		union := len(cb) + len(sb) - inter
		if union == 0 {
			continue
		}
		if sim := float64(inter) / float64(union); sim > max {
			max = sim
		}
	}
	return max
}

func bigrams(content string) map[string]struct{} {
	words := tokenize(content)
	out := make(map[string]struct{}, len(words))
	for i := 0; i+1 < len(words); i++ {
		out[words[i]+" "+words[i+1]] = struct{}{}
	}
	return out
}

var riskyTerms = []string{
	"hate", "violence", "weapon", "exploit", "discriminat",
	"harass", "self-harm", "illegal", "gambl", "extremis",
}

func ethicsConcerns(content string) []string {
	lower := strings.ToLower(content)
	var concerns []string
	for _, term := range riskyTerms {
		if strings.Contains(lower, term) {
			concerns = append(concerns, fmt.Sprintf("content references %q", term))
		}
	}
	return concerns
}

var policyClaims = []string{
	"guaranteed results", "100% effective", "risk-free", "cure",
	"get rich quick", "no side effects", "miracle",
}

func policyViolations(content string) []string {
	lower := strings.ToLower(content)
	var violations []string
	for _, claim := range policyClaims {
		if strings.Contains(lower, claim) {
			violations = append(violations, fmt.Sprintf("unsubstantiated claim %q", claim))
		}
	}
	return violations
}

func riskLevel(plagiarism bool, concerns, violations []string) string {
	findings := len(concerns) + len(violations)
	switch {
	case plagiarism || findings >= 3:
		return "high"
	case findings > 0:
		return "medium"
	default:
		return "low"
	}
}
