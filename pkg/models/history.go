package models

import "time"

// Sentinel step ids for workflow-level history entries.
const (
	WorkflowStartHistoryID  = "workflow_start"
	WorkflowEndHistoryID    = "workflow_end"
	WorkflowErrorHistoryID  = "workflow_error"
	WorkflowPauseHistoryID  = "workflow_pause"
	WorkflowResumeHistoryID = "workflow_resume"
	WorkflowCancelHistoryID = "workflow_cancel"
	WorkflowRerunHistoryID  = "workflow_rerun"
)

// WorkflowHistoryItem is an immutable record of one lifecycle transition,
// used for audit and progress reconstruction.
type WorkflowHistoryItem struct {
	WorkflowID string     `json:"workflow_id"`
	StepID     string     `json:"step_id"`
	Status     StepStatus `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	Message    string     `json:"message,omitempty"`
}
