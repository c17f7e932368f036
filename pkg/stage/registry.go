package stage

import (
	"context"
	"sync"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// Registry maps stage types to their implementations. The set is closed at
// registration time; registering twice for a type replaces the earlier stage.
type Registry struct {
	mu     sync.RWMutex
	stages map[models.StepType]Stage
}

func NewRegistry() *Registry {
	return &Registry{stages: make(map[models.StepType]Stage)}
}

func (r *Registry) Register(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[s.Type()] = s
}

// Lookup returns the stage for a type, or ErrUnknownStageType.
func (r *Registry) Lookup(stepType models.StepType) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stages[stepType]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStageType, "%s", stepType)
	}
	return s, nil
}

// Validate checks a step's input against its stage at creation time.
func (r *Registry) Validate(stepType models.StepType, input map[string]interface{}) error {
	s, err := r.Lookup(stepType)
	if err != nil {
		return err
	}
	return s.Validate(input)
}

// Dispatch executes the stage registered for stepType. Stage failures are
// wrapped in *Error so callers can report which stage raised.
func (r *Registry) Dispatch(ctx context.Context, stepType models.StepType, input map[string]interface{}) (map[string]interface{}, error) {
	s, err := r.Lookup(stepType)
	if err != nil {
		return nil, err
	}
	output, err := s.Execute(ctx, input)
	if err != nil {
		return nil, &Error{Stage: stepType, Err: err}
	}
	return output, nil
}
