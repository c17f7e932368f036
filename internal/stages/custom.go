package stages

import (
	"context"
	"time"

	"github.com/inkforge/contentflow/pkg/models"
)

// CustomStage echoes its input back, which lets callers insert marker steps
// into a workflow without registering new stage logic.
type CustomStage struct{}

func NewCustomStage() *CustomStage {
	return &CustomStage{}
}

func (s *CustomStage) Type() models.StepType {
	return models.CustomStepType
}

func (s *CustomStage) Validate(input map[string]interface{}) error {
	return nil
}

func (s *CustomStage) Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{
		"custom_step_result": "executed",
		"input_data":         input,
		"executed_at":        time.Now().UTC().Format(time.RFC3339),
	}, nil
}
