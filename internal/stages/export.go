package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// ExportInput names the content to publish, the export format and the
// destination platform.
type ExportInput struct {
	ContentID      string `json:"content_id"`
	Content        string `json:"content"`
	Title          string `json:"title"`
	ExportFormat   string `json:"export_format"`
	TargetPlatform string `json:"target_platform"`
}

var exportFormats = map[string]struct{}{
	"blog":         {},
	"social_media": {},
	"ad_campaign":  {},
}

// ExportStage formats content for a destination platform and returns the
// publish coordinates. Delivery itself is simulated.
type ExportStage struct {
	logger Logger
}

func NewExportStage(logger Logger) *ExportStage {
	return &ExportStage{logger: logger}
}

func (s *ExportStage) Type() models.StepType {
	return models.ExportStepType
}

func (s *ExportStage) Validate(input map[string]interface{}) error {
	var in ExportInput
	if err := decodeInput(input, &in); err != nil {
		return errors.Wrap(err, "invalid export input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return errors.New("content is required")
	}
	if in.ExportFormat != "" {
		if _, ok := exportFormats[in.ExportFormat]; !ok {
			return errors.Errorf("unsupported export format: %s", in.ExportFormat)
		}
	}
	return nil
}

func (s *ExportStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	var in ExportInput
	if err := decodeInput(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid export input")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, errors.New("content is required")
	}
	if in.ExportFormat == "" {
		in.ExportFormat = "blog"
	}
	if _, ok := exportFormats[in.ExportFormat]; !ok {
		return nil, errors.Errorf("unsupported export format: %s", in.ExportFormat)
	}
	if in.TargetPlatform == "" {
		in.TargetPlatform = "wordpress"
	}

	formatted := formatExportContent(in)
	formatted = sanitizeForPlatform(formatted, in.TargetPlatform)

	exportID := "export_" + uuid.New().String()[:8]
	platformID := fmt.Sprintf("%s_%s", in.TargetPlatform, exportID)
	s.logger.Infof("Exported %s as %s to %s", in.ContentID, in.ExportFormat, in.TargetPlatform)

	return map[string]interface{}{
		"export_id":           exportID,
		"content_id":          in.ContentID,
		"export_format":       in.ExportFormat,
		"target_platform":     in.TargetPlatform,
		"export_status":       "completed",
		"export_url":          fmt.Sprintf("https://%s.example.com/content/%s", in.TargetPlatform, exportID),
		"platform_identifier": platformID,
		"formatted_content":   formatted,
		"character_count":     len(formatted),
	}, nil
}

func formatExportContent(in ExportInput) string {
	switch in.ExportFormat {
	case "social_media":
		content := in.Content
		// Leave room for a link when truncating post bodies.
		if len(content) > 260 {
			content = content[:257] + "..."
		}
		return content
	case "ad_campaign":
		headline := in.Title
		if headline == "" {
			sents := splitSentences(in.Content)
			if len(sents) > 0 {
				headline = sents[0]
			}
		}
		if len(headline) > 90 {
			headline = headline[:87] + "..."
		}
		return fmt.Sprintf("Headline: %s\nBody: %s", headline, in.Content)
	default: // blog
		if in.Title != "" {
			return fmt.Sprintf("# %s\n\n%s", in.Title, in.Content)
		}
		return in.Content
	}
}

func sanitizeForPlatform(content, platform string) string {
	switch platform {
	case "twitter":
		// Hard platform limit.
		if len(content) > 280 {
			content = content[:277] + "..."
		}
		return content
	case "linkedin":
		if len(content) > 3000 {
			content = content[:2997] + "..."
		}
		return content
	case "wordpress", "medium":
		return content
	default:
		return sanitizeContent(content)
	}
}
