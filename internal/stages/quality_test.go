package stages

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityReviewStage(t *testing.T) {
	s := NewQualityReviewStage(nopLogger{})

	t.Run("ValidateRequiresContent", func(t *testing.T) {
		assert.Error(t, s.Validate(map[string]interface{}{"content_id": "c1"}))
		assert.NoError(t, s.Validate(map[string]interface{}{"content": "short and clear"}))
	})

	t.Run("ScoresAllAspects", func(t *testing.T) {
		content := "Have you tried workflow automation? First, it saves your team time. " +
			"Then it removes manual errors. Overall, we think you will like the results!"
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content_id": "c1",
			"content":    content,
		})
		assert.NoError(t, err)
		assert.Equal(t, "c1", out["content_id"])
		assert.Equal(t, content, out["original_content"])

		for _, key := range []string{"clarity_score", "readability_score", "engagement_score", "flow_score", "overall_score"} {
			score := out[key].(float64)
			assert.GreaterOrEqual(t, score, 0.0, key)
			assert.LessOrEqual(t, score, 100.0, key)
		}
		assert.NotEmpty(t, out["improvement_summary"])
	})

	t.Run("NormalizesWhitespace", func(t *testing.T) {
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content": "Spaced    out   text.\n\n\nWith   gaps.",
		})
		assert.NoError(t, err)
		assert.Equal(t, "Spaced out text. With gaps.", out["improved_content"])

		summary := out["improvement_summary"].([]string)
		assert.Contains(t, summary[0], "whitespace")
	})

	t.Run("FlagsOverlongSentences", func(t *testing.T) {
		long := strings.Repeat("word ", 40) + "."
		out, err := s.Execute(context.Background(), map[string]interface{}{"content": long})
		assert.NoError(t, err)

		summary := out["improvement_summary"].([]string)
		var flagged bool
		for _, item := range summary {
			if strings.Contains(item, "exceed 30 words") {
				flagged = true
			}
		}
		assert.True(t, flagged)
	})
}

func TestEngagementScore(t *testing.T) {
	engaging := "Do you want faster builds? You can have them! Your team will thank you."
	flat := "The compiler processes the source files. The linker produces the binary."
	assert.Greater(t, engagementScore(engaging), engagementScore(flat))
}

func TestClarityScore(t *testing.T) {
	clear := "We ship on Friday. The tests pass. The plan is simple."
	opaque := strings.Repeat("multisyllabic institutional paradigmatic considerations necessitate recalibration ", 8)
	assert.Greater(t, clarityScore(clear), clarityScore(opaque))
	assert.Equal(t, 0.0, clarityScore(""))
}
