package storage

import (
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when the requested workflow id is absent.
var ErrNotFound = errors.New("workflow not found")

// Store defines keyed persistence of workflow state. Implementations must
// support safe concurrent access across workflows; UpdateWorkflow is the
// atomic per-key read/modify/write used for every state transition, so a
// pause racing a running execution cannot lose updates.
type Store interface {
	// SaveWorkflow persists a new or replaced state under its workflow id.
	SaveWorkflow(state models.WorkflowState) error
	// GetWorkflow returns a snapshot of the state, or ErrNotFound.
	GetWorkflow(id string) (models.WorkflowState, error)
	// UpdateWorkflow applies mutate to the stored state under the per-key
	// lock and returns the resulting snapshot. Returns ErrNotFound if the id
	// is absent; an error from mutate aborts the update.
	UpdateWorkflow(id string, mutate func(*models.WorkflowState) error) (models.WorkflowState, error)
	// DeleteWorkflow removes the state, or returns ErrNotFound.
	DeleteWorkflow(id string) error
	// ListWorkflows returns snapshots of all tracked workflows.
	ListWorkflows() ([]models.WorkflowState, error)

	Close() error
}
