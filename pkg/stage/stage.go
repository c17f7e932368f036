// Package stage defines the contract between the workflow orchestrator and
// the analysis/generation stages it dispatches to. Stages are pure functions
// of their input from the orchestrator's point of view: no shared mutable
// state crosses the registry boundary.
package stage

import (
	"context"
	"fmt"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// ErrUnknownStageType is returned when a step references a stage type with no
// registered implementation. It fails the step, not the whole process.
var ErrUnknownStageType = errors.New("unknown stage type")

// Error wraps a failure raised by a stage during dispatch, carrying the stage
// name alongside the cause.
type Error struct {
	Stage models.StepType
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Stage is one independently implemented capability invoked as a workflow
// step. Validate runs at workflow-creation time so malformed input is caught
// before execution starts; Execute must honor ctx cancellation so in-flight
// calls can be aborted.
type Stage interface {
	Type() models.StepType
	Validate(input map[string]interface{}) error
	Execute(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}
