package service

import (
	"context"
	"fmt"
	"time"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/stage"
	"github.com/inkforge/contentflow/pkg/storage"
	"github.com/pkg/errors"
)

// Logger defines the logging interface for WorkflowService
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// WorkflowService orchestrates multi-step content workflows: it creates
// workflow state, drives execution by dispatching each step to the stage
// registry, and applies lifecycle actions. It holds no durable state of its
// own; everything lives in the injected store, keyed by workflow id.
type WorkflowService struct {
	store    storage.Store
	registry *stage.Registry
	logger   Logger
}

func NewWorkflowService(store storage.Store, registry *stage.Registry, logger Logger) *WorkflowService {
	return &WorkflowService{
		store:    store,
		registry: registry,
		logger:   logger,
	}
}

// CreateWorkflow validates the request, assigns step ids and persists a new
// workflow in pending status. Stage inputs are validated here, at creation
// time, so malformed payloads never reach execution. No history entry is
// written at creation; history begins at execution.
func (s *WorkflowService) CreateWorkflow(req models.WorkflowRequest) (models.WorkflowState, error) {
	if req.WorkflowName == "" {
		return models.WorkflowState{}, invalidRequest(errors.New("workflow name cannot be empty"))
	}
	if len(req.WorkflowName) > 100 {
		return models.WorkflowState{}, invalidRequest(errors.New("workflow name too long (max 100 characters)"))
	}
	if len(req.Steps) == 0 {
		return models.WorkflowState{}, invalidRequest(errors.New("workflow must contain at least one step"))
	}

	seen := make(map[string]struct{}, len(req.Steps))
	steps := make([]models.WorkflowStep, 0, len(req.Steps))
	for i, sr := range req.Steps {
		stepID := sr.StepID
		if stepID == "" {
			stepID = fmt.Sprintf("step_%d", i+1)
		}
		if _, dup := seen[stepID]; dup {
			return models.WorkflowState{}, invalidRequest(errors.Errorf("duplicate step id '%s'", stepID))
		}
		seen[stepID] = struct{}{}

		if err := s.registry.Validate(sr.StepType, sr.InputData); err != nil {
			return models.WorkflowState{}, invalidRequest(errors.Wrapf(err, "invalid input for step '%s'", stepID))
		}

		steps = append(steps, models.WorkflowStep{
			StepID:      stepID,
			StepType:    sr.StepType,
			Description: sr.Description,
			InputData:   sr.InputData,
			Status:      models.PendingStepStatus,
		})
		s.logger.Debugf("Added step %s of type %s: %s", stepID, sr.StepType, sr.Description)
	}

	metadata := make(map[string]interface{}, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	if req.ParallelExecution {
		metadata[models.ParallelExecutionKey] = true
	}

	state := models.WorkflowState{
		WorkflowID:   models.NewWorkflowID(),
		WorkflowName: req.WorkflowName,
		Description:  req.Description,
		Status:       models.PendingWorkflowStatus,
		Steps:        steps,
		Progress:     0,
		CreatedAt:    time.Now(),
		Metadata:     metadata,
	}

	if err := s.store.SaveWorkflow(state); err != nil {
		return models.WorkflowState{}, errors.Wrap(err, "failed to persist workflow")
	}
	s.logger.Infof("Created workflow '%s' with ID %s containing %d steps", req.WorkflowName, state.WorkflowID, len(steps))
	return state, nil
}

// ExecuteWorkflow runs a pending workflow to a terminal state. Steps run in
// declared order unless the parallelism hint is set, in which case all steps
// are dispatched concurrently and gathered. The workflow completes only if
// every step completed; any orchestration fault forces a terminal failed
// state, so the workflow is never left stuck in running.
func (s *WorkflowService) ExecuteWorkflow(ctx context.Context, workflowID string) (models.WorkflowState, error) {
	state, err := s.store.UpdateWorkflow(workflowID, func(w *models.WorkflowState) error {
		if w.Status != models.PendingWorkflowStatus {
			return errors.Wrapf(ErrInvalidTransition, "cannot execute workflow in status '%s'", w.Status)
		}
		now := time.Now()
		w.Status = models.RunningWorkflowStatus
		w.StartedAt = &now
		w.AppendHistory(models.WorkflowStartHistoryID, models.ExecutingStepStatus, "Workflow execution started")
		return nil
	})
	if err != nil {
		return models.WorkflowState{}, err
	}
	s.logger.Infof("Executing workflow %s (%d steps, parallel=%t)", workflowID, len(state.Steps), state.ParallelExecution())

	var execErr error
	if state.ParallelExecution() {
		execErr = s.runParallel(ctx, workflowID, len(state.Steps))
	} else {
		execErr = s.runSequential(ctx, workflowID, len(state.Steps))
	}
	if execErr != nil {
		return s.failWorkflow(workflowID, execErr)
	}

	final, err := s.store.UpdateWorkflow(workflowID, func(w *models.WorkflowState) error {
		if w.Status != models.RunningWorkflowStatus {
			// Cancelled (or otherwise moved) underneath us; leave as-is.
			return nil
		}
		now := time.Now()
		w.CompletedAt = &now
		w.RecomputeProgress()
		if w.CompletedSteps() == len(w.Steps) {
			w.Status = models.CompletedWorkflowStatus
			w.Result = buildWorkflowResult(w)
			w.AppendHistory(models.WorkflowEndHistoryID, models.CompletedStepStatus,
				fmt.Sprintf("Workflow completed with status: %s", w.Status))
		} else {
			w.Status = models.FailedWorkflowStatus
			w.ErrorMessage = firstStepError(w)
			w.AppendHistory(models.WorkflowEndHistoryID, models.FailedStepStatus,
				fmt.Sprintf("Workflow completed with status: %s", w.Status))
		}
		return nil
	})
	if err != nil {
		return models.WorkflowState{}, err
	}
	s.logger.Infof("Workflow %s finished with status '%s' (progress %.0f%%)", workflowID, final.Status, final.Progress)
	return final, nil
}

// failWorkflow forces a workflow into a terminal failed state after an
// orchestration-level fault. The fault is recorded, not propagated: callers
// still receive a well-formed state.
func (s *WorkflowService) failWorkflow(workflowID string, cause error) (models.WorkflowState, error) {
	s.logger.Errorf("Workflow %s orchestration fault: %v", workflowID, cause)
	state, err := s.store.UpdateWorkflow(workflowID, func(w *models.WorkflowState) error {
		if w.Status.Terminal() {
			return nil
		}
		now := time.Now()
		w.Status = models.FailedWorkflowStatus
		w.ErrorMessage = cause.Error()
		w.CompletedAt = &now
		w.RecomputeProgress()
		w.AppendHistory(models.WorkflowErrorHistoryID, models.FailedStepStatus,
			fmt.Sprintf("Workflow failed with error: %v", cause))
		return nil
	})
	if err != nil {
		return models.WorkflowState{}, err
	}
	return state, nil
}

// GetWorkflowStatus returns a read-only snapshot of the workflow.
func (s *WorkflowService) GetWorkflowStatus(workflowID string) (models.WorkflowState, error) {
	return s.store.GetWorkflow(workflowID)
}

// UpdateWorkflow applies a lifecycle action. Transitions are strict: an
// action that is not legal from the current status fails with
// ErrInvalidTransition rather than silently mutating.
func (s *WorkflowService) UpdateWorkflow(req models.WorkflowUpdateRequest) (models.WorkflowState, error) {
	state, err := s.store.UpdateWorkflow(req.WorkflowID, func(w *models.WorkflowState) error {
		switch req.Action {
		case models.PauseWorkflowAction:
			if w.Status != models.RunningWorkflowStatus {
				return errors.Wrapf(ErrInvalidTransition, "cannot pause workflow in status '%s'", w.Status)
			}
			w.Status = models.PausedWorkflowStatus
			w.AppendHistory(models.WorkflowPauseHistoryID, models.PendingStepStatus, "Workflow paused by user request")
		case models.ResumeWorkflowAction:
			if w.Status != models.PausedWorkflowStatus {
				return errors.Wrapf(ErrInvalidTransition, "cannot resume workflow in status '%s'", w.Status)
			}
			w.Status = models.RunningWorkflowStatus
			w.AppendHistory(models.WorkflowResumeHistoryID, models.ExecutingStepStatus, "Workflow resumed by user request")
		case models.CancelWorkflowAction:
			if w.Status.Terminal() {
				return errors.Wrapf(ErrInvalidTransition, "cannot cancel workflow in status '%s'", w.Status)
			}
			now := time.Now()
			w.Status = models.CancelledWorkflowStatus
			w.CompletedAt = &now
			w.AppendHistory(models.WorkflowCancelHistoryID, models.SkippedStepStatus, "Workflow cancelled by user request")
		case models.RerunWorkflowAction:
			if !w.Status.Terminal() {
				return errors.Wrapf(ErrInvalidTransition, "cannot rerun workflow in status '%s'", w.Status)
			}
			for i := range w.Steps {
				w.Steps[i].Reset()
			}
			w.Status = models.PendingWorkflowStatus
			w.CurrentStepIndex = nil
			w.StartedAt = nil
			w.CompletedAt = nil
			w.ErrorMessage = ""
			w.Result = nil
			w.AppendHistory(models.WorkflowRerunHistoryID, models.PendingStepStatus, "Workflow reset for rerun by user request")
		default:
			return invalidRequest(errors.Errorf("unknown workflow action '%s'", req.Action))
		}
		w.RecomputeProgress()
		return nil
	})
	if err != nil {
		return models.WorkflowState{}, err
	}
	s.logger.Infof("Applied action '%s' to workflow %s (status now '%s')", req.Action, req.WorkflowID, state.Status)
	return state, nil
}

// ListWorkflows returns a snapshot of all tracked workflows.
func (s *WorkflowService) ListWorkflows() ([]models.WorkflowState, error) {
	return s.store.ListWorkflows()
}

// Statistics aggregates execution outcomes across all tracked workflows.
func (s *WorkflowService) Statistics() (models.WorkflowStatistics, error) {
	states, err := s.store.ListWorkflows()
	if err != nil {
		return models.WorkflowStatistics{}, err
	}
	return models.ComputeStatistics(states), nil
}

// CleanupWorkflow deletes a workflow from the store.
func (s *WorkflowService) CleanupWorkflow(workflowID string) error {
	if err := s.store.DeleteWorkflow(workflowID); err != nil {
		return err
	}
	s.logger.Infof("Deleted workflow %s", workflowID)
	return nil
}

// buildWorkflowResult aggregates per-step outputs and a history snapshot.
// Populated only for completed workflows.
func buildWorkflowResult(w *models.WorkflowState) map[string]interface{} {
	history := make([]map[string]interface{}, 0, len(w.History))
	for _, item := range w.History {
		history = append(history, map[string]interface{}{
			"step_id":   item.StepID,
			"status":    string(item.Status),
			"timestamp": item.Timestamp.Format(time.RFC3339),
			"message":   item.Message,
		})
	}
	result := map[string]interface{}{
		"workflow_id":       w.WorkflowID,
		"workflow_name":     w.WorkflowName,
		"steps_executed":    len(w.Steps),
		"steps_successful":  w.CompletedSteps(),
		"execution_history": history,
	}
	for _, step := range w.Steps {
		if step.Status == models.CompletedStepStatus && step.OutputData != nil {
			result[fmt.Sprintf("step_%s_result", step.StepID)] = step.OutputData
		}
	}
	return result
}

func firstStepError(w *models.WorkflowState) string {
	for _, step := range w.Steps {
		if step.Status == models.FailedStepStatus && step.ErrorMessage != "" {
			return fmt.Sprintf("step '%s' failed: %s", step.StepID, step.ErrorMessage)
		}
	}
	return ""
}
