package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type WorkflowStatus string

const (
	PendingWorkflowStatus   WorkflowStatus = "pending"
	RunningWorkflowStatus   WorkflowStatus = "running"
	CompletedWorkflowStatus WorkflowStatus = "completed"
	FailedWorkflowStatus    WorkflowStatus = "failed"
	CancelledWorkflowStatus WorkflowStatus = "cancelled"
	PausedWorkflowStatus    WorkflowStatus = "paused"
)

// Terminal reports whether no further automatic transition occurs
// without an explicit rerun.
func (s WorkflowStatus) Terminal() bool {
	return s == CompletedWorkflowStatus || s == FailedWorkflowStatus || s == CancelledWorkflowStatus
}

// ParallelExecutionKey is the metadata key carrying the parallelism hint.
const ParallelExecutionKey = "parallel_execution"

// WorkflowState is the aggregate root for a single workflow run: the ordered
// steps, the workflow-level status, progress and the append-only history log.
// The store is the sole owner of its lifetime.
type WorkflowState struct {
	WorkflowID       string                 `json:"workflow_id" db:"workflow_id"`
	WorkflowName     string                 `json:"workflow_name" db:"workflow_name"`
	Description      string                 `json:"description,omitempty"`
	Status           WorkflowStatus         `json:"status" db:"status"`
	Steps            []WorkflowStep         `json:"steps"`
	CurrentStepIndex *int                   `json:"current_step_index,omitempty"`
	Progress         float64                `json:"progress"`
	History          []WorkflowHistoryItem  `json:"history"`
	Result           map[string]interface{} `json:"result,omitempty"`
	ErrorMessage     string                 `json:"error_message,omitempty"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
	StartedAt        *time.Time             `json:"started_at,omitempty"`
	CompletedAt      *time.Time             `json:"completed_at,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// NewWorkflowID generates a unique workflow identifier of the form
// wf_<timestamp>_<random>.
func NewWorkflowID() string {
	ts := time.Now().Format("20060102_150405")
	random := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("wf_%s_%s", ts, random)
}

// CompletedSteps counts steps whose status is completed.
func (w *WorkflowState) CompletedSteps() int {
	n := 0
	for _, step := range w.Steps {
		if step.Status == CompletedStepStatus {
			n++
		}
	}
	return n
}

// RecomputeProgress sets Progress to 100*completed/total. Called after every
// step transition so the stored state never carries a stale value.
func (w *WorkflowState) RecomputeProgress() {
	if len(w.Steps) == 0 {
		w.Progress = 0
		return
	}
	w.Progress = 100 * float64(w.CompletedSteps()) / float64(len(w.Steps))
}

// AppendHistory appends one audit entry. History is append-only; entries are
// never edited or removed.
func (w *WorkflowState) AppendHistory(stepID string, status StepStatus, message string) {
	w.History = append(w.History, WorkflowHistoryItem{
		WorkflowID: w.WorkflowID,
		StepID:     stepID,
		Status:     status,
		Timestamp:  time.Now(),
		Message:    message,
	})
}

// ParallelExecution reports whether the parallelism hint is set in metadata.
func (w *WorkflowState) ParallelExecution() bool {
	if w.Metadata == nil {
		return false
	}
	v, ok := w.Metadata[ParallelExecutionKey].(bool)
	return ok && v
}

// CurrentStepID returns the step id at CurrentStepIndex, or "" when absent.
func (w *WorkflowState) CurrentStepID() string {
	if w.CurrentStepIndex == nil || *w.CurrentStepIndex >= len(w.Steps) {
		return ""
	}
	return w.Steps[*w.CurrentStepIndex].StepID
}

// Clone returns a deep copy of the state so callers can hand out snapshots
// without sharing the step slice, history log or metadata maps.
func (w *WorkflowState) Clone() WorkflowState {
	out := *w
	if w.CurrentStepIndex != nil {
		idx := *w.CurrentStepIndex
		out.CurrentStepIndex = &idx
	}
	if w.StartedAt != nil {
		t := *w.StartedAt
		out.StartedAt = &t
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		out.CompletedAt = &t
	}
	out.Steps = make([]WorkflowStep, len(w.Steps))
	for i := range w.Steps {
		out.Steps[i] = w.Steps[i].Clone()
	}
	out.History = append([]WorkflowHistoryItem(nil), w.History...)
	out.Result = deepCopyMap(w.Result)
	out.Metadata = deepCopyMap(w.Metadata)
	return out
}
