package models

import (
	"encoding/json"
	"time"
)

// StepType identifies which analysis or generation stage a step dispatches to.
type StepType string

const (
	ContentGenerationStepType StepType = "content_generation"
	SEOAnalysisStepType       StepType = "seo_analysis"
	QualityReviewStepType     StepType = "quality_review"
	EthicsCheckStepType       StepType = "ethics_check"
	ResearchStepType          StepType = "research"
	ExportStepType            StepType = "export"
	CustomStepType            StepType = "custom"
)

// KnownStepTypes is the closed set of step types understood by the service.
var KnownStepTypes = []StepType{
	ContentGenerationStepType,
	SEOAnalysisStepType,
	QualityReviewStepType,
	EthicsCheckStepType,
	ResearchStepType,
	ExportStepType,
	CustomStepType,
}

type StepStatus string

const (
	PendingStepStatus   StepStatus = "pending"
	ExecutingStepStatus StepStatus = "executing"
	CompletedStepStatus StepStatus = "completed"
	FailedStepStatus    StepStatus = "failed"
	SkippedStepStatus   StepStatus = "skipped"
)

// WorkflowStep is one unit of work within a workflow, bound to exactly one
// stage type and one input payload. Mutated exclusively by the orchestrator
// during execution; output_data is set iff the step completed, error_message
// iff it failed.
type WorkflowStep struct {
	StepID       string                 `json:"step_id"`
	StepType     StepType               `json:"step_type"`
	Description  string                 `json:"description"`
	InputData    map[string]interface{} `json:"input_data"`
	OutputData   map[string]interface{} `json:"output_data,omitempty"`
	Status       StepStatus             `json:"status"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	StartTime    *time.Time             `json:"start_time,omitempty"`
	EndTime      *time.Time             `json:"end_time,omitempty"`
	Duration     float64                `json:"duration,omitempty"` // seconds
}

// Reset returns the step to its created state, clearing output, error and
// timing. Used by rerun.
func (s *WorkflowStep) Reset() {
	s.Status = PendingStepStatus
	s.OutputData = nil
	s.ErrorMessage = ""
	s.StartTime = nil
	s.EndTime = nil
	s.Duration = 0
}

// Clone deep-copies the step, including its payload maps.
func (s WorkflowStep) Clone() WorkflowStep {
	out := s
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.InputData = deepCopyMap(s.InputData)
	out.OutputData = deepCopyMap(s.OutputData)
	return out
}

// deepCopyMap copies an opaque JSON-shaped payload. A marshal round-trip is
// used because payload values nest arbitrarily (maps, slices).
func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		// Payloads originate from JSON requests, so this cannot happen for
		// stored state; fall back to a shallow copy.
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
