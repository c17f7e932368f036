package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// QualityReviewInput names the content to review and the aspects to focus on.
type QualityReviewInput struct {
	ContentID     string   `json:"content_id"`
	Content       string   `json:"content"`
	ReviewAspects []string `json:"review_aspects"`
}

// QualityReviewStage scores clarity, readability, engagement and flow, and
// produces a lightly improved rendition of the content.
type QualityReviewStage struct {
	logger Logger
}

func NewQualityReviewStage(logger Logger) *QualityReviewStage {
	return &QualityReviewStage{logger: logger}
}

func (s *QualityReviewStage) Type() models.StepType {
	return models.QualityReviewStepType
}

func (s *QualityReviewStage) Validate(input map[string]interface{}) error {
	var in QualityReviewInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid quality review input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

func (s *QualityReviewStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in QualityReviewInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid quality review input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errors.New("content is required")
	}

	clarity := clarityScore(in.Content)
	readability := round2(readabilityScore(in.Content))
	engagement := engagementScore(in.Content)
	flow := flowScore(in.Content)

	improved, summary := improveContent(in.Content)
	if len(summary) == 0 {
		summary = append(summary, "No structural issues found")
	}

	overall := round2((clarity + readability + engagement + flow) / 4)
	s.logger.Debugf("Quality review for %s: overall=%.2f", in.ContentID, overall)

	return map[string]interface{}{
		"content_id":          in.ContentID,
		"original_content":    in.Content,
		"improved_content":    improved,
		"overall_score":       overall,
		"clarity_score":       clarity,
		"readability_score":   readability,
		"engagement_score":    engagement,
		"flow_score":          flow,
		"improvement_summary": summary,
	}, nil
}

// improveContent applies mechanical cleanups: whitespace normalization and
// flagging of overlong sentences. Rewriting prose stays with the generation
// stage.
func improveContent(content string) (string, []string) {
	var summary []string

	improved := strings.Join(strings.Fields(content), " ")
	if improved != strings.TrimSpace(content) {
		summary = append(summary, "Normalized irregular whitespace")
	}

	long := 0
	for _, sent := range splitSentences(improved) {
		if len(tokenize(sent)) > 30 {
			long++
		}
	}
	if long > 0 {
		summary = append(summary, fmt.Sprintf("%d sentence(s) exceed 30 words; consider splitting them", long))
	}
	return improved, summary
}
