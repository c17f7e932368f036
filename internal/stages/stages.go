// Package stages implements the analysis and generation stages dispatched by
// the workflow orchestrator: LLM content generation, SEO analysis, quality
// review, ethics screening, research assistance and multi-platform export.
package stages

import (
	"encoding/json"

	"github.com/inkforge/contentflow/internal/config"
	"github.com/inkforge/contentflow/pkg/stage"
)

// Logger is the logging surface stages need; internal/log and the service
// no-op test logger both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewRegistry wires every stage implementation into a registry. The LLM
// provider is selected from settings and its credentials are required, as is
// the case for the generation stage's upstream.
func NewRegistry(cfg *config.Settings, logger Logger) (*stage.Registry, error) {
	provider, err := NewLLMProvider(cfg)
	if err != nil {
		return nil, err
	}

	r := stage.NewRegistry()
	r.Register(NewContentGenerationStage(provider, logger))
	r.Register(NewSEOAnalysisStage(logger))
	r.Register(NewQualityReviewStage(logger))
	r.Register(NewEthicsCheckStage(logger))
	r.Register(NewResearchStage(cfg, logger))
	r.Register(NewExportStage(logger))
	r.Register(NewCustomStage())
	return r, nil
}

// decodeInput converts an opaque step payload into a typed stage input.
func decodeInput(input map[string]interface{}, dst interface{}) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
