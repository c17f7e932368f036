package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEthicsCheckStage(t *testing.T) {
	s := NewEthicsCheckStage(nopLogger{})

	t.Run("ValidateRequiresContent", func(t *testing.T) {
		assert.Error(t, s.Validate(map[string]interface{}{}))
		assert.Error(t, s.Validate(map[string]interface{}{
			"content":     "fine",
			"check_types": []string{"astrology"},
		}))
		assert.NoError(t, s.Validate(map[string]interface{}{
			"content":     "fine",
			"check_types": []string{"plagiarism", "policy"},
		}))
	})

	t.Run("CleanContentIsLowRisk", func(t *testing.T) {
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content_id": "c1",
			"content":    "Our quarterly report covers revenue trends and product updates.",
		})
		assert.NoError(t, err)
		assert.Equal(t, false, out["plagiarism_detected"])
		assert.Equal(t, "low", out["risk_level"])
		assert.Equal(t, 0.95, out["confidence"])
		assert.Empty(t, out["ethics_concerns"])
		assert.Empty(t, out["policy_violations"])
		assert.ElementsMatch(t, []string{"plagiarism", "ethics", "policy"}, out["checks_performed"])
	})

	t.Run("DetectsCopiedContent", func(t *testing.T) {
		source := "Machine learning models learn statistical patterns from large datasets " +
			"and generalize those patterns to unseen examples during inference."
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content_id":        "c2",
			"content":           source,
			"check_types":       []string{"plagiarism"},
			"reference_sources": []string{source},
		})
		assert.NoError(t, err)
		assert.Equal(t, true, out["plagiarism_detected"])
		assert.Equal(t, 1.0, out["similarity_score"])
		assert.Equal(t, "high", out["risk_level"])
		assert.NotEmpty(t, out["recommendations"])
	})

	t.Run("OriginalContentPassesPlagiarism", func(t *testing.T) {
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content":           "A completely different essay about gardening in small spaces.",
			"check_types":       []string{"plagiarism"},
			"reference_sources": []string{"Machine learning models learn statistical patterns from large datasets."},
		})
		assert.NoError(t, err)
		assert.Equal(t, false, out["plagiarism_detected"])
	})

	t.Run("FlagsRiskyLanguage", func(t *testing.T) {
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content":     "This guide promotes violence and explains illegal activities.",
			"check_types": []string{"ethics"},
		})
		assert.NoError(t, err)
		concerns := out["ethics_concerns"].([]string)
		assert.NotEmpty(t, concerns)
		assert.NotEqual(t, "low", out["risk_level"])
	})

	t.Run("FlagsPolicyClaims", func(t *testing.T) {
		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content":     "Try our miracle supplement with guaranteed results and no side effects!",
			"check_types": []string{"policy"},
		})
		assert.NoError(t, err)
		violations := out["policy_violations"].([]string)
		assert.Len(t, violations, 3)
		assert.Equal(t, "high", out["risk_level"])
	})
}

func TestMaxSimilarity(t *testing.T) {
	assert.Equal(t, 0.0, maxSimilarity("", []string{"anything"}))
	assert.Equal(t, 0.0, maxSimilarity("some words here", nil))

	sim := maxSimilarity("alpha beta gamma delta", []string{"alpha beta gamma delta epsilon"})
	assert.Greater(t, sim, 0.5)
	assert.Less(t, sim, 1.0)
}
