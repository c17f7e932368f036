package stages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// ContentGenerationInput describes a content brief for the generation stage.
type ContentGenerationInput struct {
	ContentID string   `json:"content_id"`
	Topic     string   `json:"topic"`
	Audience  string   `json:"audience"`
	Tone      string   `json:"tone"`
	Style     string   `json:"style"`
	Format    string   `json:"format"`
	Length    int      `json:"length"`
	Keywords  []string `json:"keywords"`
}

// ContentGenerationStage turns a content brief into finished copy through an
// LLM provider and scores the draft.
type ContentGenerationStage struct {
	provider LLMProvider
	logger   Logger
}

func NewContentGenerationStage(provider LLMProvider, logger Logger) *ContentGenerationStage {
	return &ContentGenerationStage{provider: provider, logger: logger}
}

func (s *ContentGenerationStage) Type() models.StepType {
	return models.ContentGenerationStepType
}

func (s *ContentGenerationStage) Validate(input map[string]interface{}) error {
	var in ContentGenerationInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid content generation input")
	}
	if strings.TrimSpace(in.Topic) == "" {
		return errors.New("topic is required")
	}
	if in.Length < 0 {
		return errors.New("length must not be negative")
	}
	return nil
}

func (s *ContentGenerationStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in ContentGenerationInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid content generation input")
	}
	if in.ContentID == "" {
		in.ContentID = "content_" + uuid.New().String()[:8]
	}

	start := time.Now()
	s.logger.Infof("Generating content for topic %q via %s", in.Topic, s.provider.Name())

	raw, err := s.provider.GenerateContent(ctx, generationSystemPrompt, buildGenerationPrompt(in))
	if err != nil {
		return nil, err
	}
	content := sanitizeContent(raw)
	if content == "" {
		return nil, errors.New("provider returned empty content")
	}

	return map[string]interface{}{
		"content_id":        in.ContentID,
		"generated_content": content,
		"quality_score":     generationQualityScore(content, in),
		"word_count":        countWords(content),
		"generation_time":   time.Since(start).Seconds(),
		"status":            "success",
	}, nil
}

func buildGenerationPrompt(in ContentGenerationInput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write about the following topic: %s\n", in.Topic)
	if in.Audience != "" {
		fmt.Fprintf(&sb, "Target audience: %s\n", in.Audience)
	}
	if in.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", in.Tone)
	}
	if in.Style != "" {
		fmt.Fprintf(&sb, "Writing style: %s\n", in.Style)
	}
	if in.Format != "" {
		fmt.Fprintf(&sb, "Format: %s\n", in.Format)
	}
	if in.Length > 0 {
		fmt.Fprintf(&sb, "Target length: approximately %d words\n", in.Length)
	}
	if len(in.Keywords) > 0 {
		fmt.Fprintf(&sb, "Incorporate these keywords naturally: %s\n", strings.Join(in.Keywords, ", "))
	}
	return sb.String()
}

// generationQualityScore is a cheap heuristic over length fit and keyword
// coverage; deeper review belongs to the quality review stage.
func generationQualityScore(content string, in ContentGenerationInput) float64 {
	score := 0.5
	wc := countWords(content)
	if wc > 50 {
		score += 0.2
	}
	if in.Length > 0 {
		ratio := float64(wc) / float64(in.Length)
		if ratio >= 0.8 && ratio <= 1.2 {
			score += 0.15
		}
	}
	if len(in.Keywords) > 0 {
		lower := strings.ToLower(content)
		found := 0
		for _, kw := range in.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				found++
			}
		}
		score += float64(found) / float64(len(in.Keywords)) * 0.15
	}
	if score > 1 {
		score = 1
	}
	return round2(score)
}
