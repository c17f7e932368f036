package stages

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestContentGenerationStage(t *testing.T) {
	t.Run("ValidateRequiresTopic", func(t *testing.T) {
		s := NewContentGenerationStage(&fakeProvider{}, nopLogger{})
		assert.Error(t, s.Validate(map[string]interface{}{"tone": "casual"}))
		assert.Error(t, s.Validate(map[string]interface{}{"topic": "go", "length": -5}))
		assert.NoError(t, s.Validate(map[string]interface{}{"topic": "go concurrency"}))
	})

	t.Run("GeneratesAndScores", func(t *testing.T) {
		provider := &fakeProvider{
			response: strings.Repeat("Generics in Go enable reusable containers. ", 20),
		}
		s := NewContentGenerationStage(provider, nopLogger{})

		out, err := s.Execute(context.Background(), map[string]interface{}{
			"content_id": "c1",
			"topic":      "Go generics",
			"audience":   "backend engineers",
			"tone":       "technical",
			"length":     120,
			"keywords":   []string{"generics", "containers"},
		})
		assert.NoError(t, err)
		assert.Equal(t, "c1", out["content_id"])
		assert.Equal(t, "success", out["status"])
		assert.NotEmpty(t, out["generated_content"])
		assert.Greater(t, out["word_count"].(int), 50)

		score := out["quality_score"].(float64)
		assert.Greater(t, score, 0.5)
		assert.LessOrEqual(t, score, 1.0)

		// The brief made it into the prompt.
		assert.Len(t, provider.prompts, 1)
		assert.Contains(t, provider.prompts[0], "Go generics")
		assert.Contains(t, provider.prompts[0], "backend engineers")
		assert.Contains(t, provider.prompts[0], "generics, containers")
	})

	t.Run("AssignsContentID", func(t *testing.T) {
		s := NewContentGenerationStage(&fakeProvider{response: "short piece"}, nopLogger{})
		out, err := s.Execute(context.Background(), map[string]interface{}{"topic": "ids"})
		assert.NoError(t, err)
		assert.True(t, strings.HasPrefix(out["content_id"].(string), "content_"))
	})

	t.Run("PropagatesProviderError", func(t *testing.T) {
		s := NewContentGenerationStage(&fakeProvider{err: errors.New("quota exhausted")}, nopLogger{})
		_, err := s.Execute(context.Background(), map[string]interface{}{"topic": "anything"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "quota exhausted")
	})

	t.Run("RejectsEmptyResponse", func(t *testing.T) {
		s := NewContentGenerationStage(&fakeProvider{response: "  <script>x</script>  "}, nopLogger{})
		_, err := s.Execute(context.Background(), map[string]interface{}{"topic": "anything"})
		assert.Error(t, err)
	})
}

func TestGenerationQualityScore(t *testing.T) {
	in := ContentGenerationInput{Length: 10, Keywords: []string{"alpha", "beta"}}
	// Short content missing every keyword scores the baseline.
	assert.Equal(t, 0.5, generationQualityScore("tiny", ContentGenerationInput{}))

	content := strings.Repeat("alpha ", 10)
	score := generationQualityScore(content, in)
	assert.Greater(t, score, 0.5)
	assert.Less(t, score, 1.0)
}
