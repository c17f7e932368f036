package models

import "time"

// StepRequest describes one step of a workflow creation request. StepID is
// optional; the orchestrator assigns a positional placeholder when omitted.
type StepRequest struct {
	StepID      string                 `json:"step_id,omitempty"`
	StepType    StepType               `json:"step_type" binding:"required"`
	Description string                 `json:"description"`
	InputData   map[string]interface{} `json:"input_data"`
}

// WorkflowRequest creates a new workflow from an ordered list of steps.
type WorkflowRequest struct {
	WorkflowName      string                 `json:"workflow_name" binding:"required"`
	Description       string                 `json:"description,omitempty"`
	Steps             []StepRequest          `json:"steps" binding:"required"`
	ParallelExecution bool                   `json:"parallel_execution,omitempty"`
	CallbackURL       string                 `json:"callback_url,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

type WorkflowAction string

const (
	PauseWorkflowAction  WorkflowAction = "pause"
	ResumeWorkflowAction WorkflowAction = "resume"
	CancelWorkflowAction WorkflowAction = "cancel"
	RerunWorkflowAction  WorkflowAction = "rerun"
)

// WorkflowUpdateRequest applies a lifecycle action to a workflow.
type WorkflowUpdateRequest struct {
	WorkflowID string         `json:"workflow_id" binding:"required"`
	Action     WorkflowAction `json:"action" binding:"required"`
	StepID     string         `json:"step_id,omitempty"`
}

// WorkflowResponse is the client-facing projection of a workflow state.
type WorkflowResponse struct {
	WorkflowID     string                 `json:"workflow_id"`
	WorkflowName   string                 `json:"workflow_name"`
	Status         WorkflowStatus         `json:"status"`
	CurrentStep    string                 `json:"current_step,omitempty"`
	Progress       float64                `json:"progress"`
	TotalSteps     int                    `json:"total_steps"`
	CompletedSteps int                    `json:"completed_steps"`
	Steps          []WorkflowStep         `json:"steps"`
	Result         map[string]interface{} `json:"result,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// NewWorkflowResponse projects a state snapshot into the response shape.
func NewWorkflowResponse(state WorkflowState) WorkflowResponse {
	return WorkflowResponse{
		WorkflowID:     state.WorkflowID,
		WorkflowName:   state.WorkflowName,
		Status:         state.Status,
		CurrentStep:    state.CurrentStepID(),
		Progress:       state.Progress,
		TotalSteps:     len(state.Steps),
		CompletedSteps: state.CompletedSteps(),
		Steps:          state.Steps,
		Result:         state.Result,
		ErrorMessage:   state.ErrorMessage,
		CreatedAt:      state.CreatedAt,
		StartedAt:      state.StartedAt,
		CompletedAt:    state.CompletedAt,
		Metadata:       state.Metadata,
	}
}
