package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/pkg/errors"
)

// runSequential executes steps strictly in declared order. Execution stops at
// the first failed step; subsequent steps remain pending. A cancel applied
// concurrently is honored at the next step boundary.
func (s *WorkflowService) runSequential(ctx context.Context, workflowID string, total int) error {
	for i := 0; i < total; i++ {
		current, err := s.store.GetWorkflow(workflowID)
		if err != nil {
			return err
		}
		if current.Status == models.CancelledWorkflowStatus {
			s.logger.Infof("Workflow %s cancelled, stopping before step %d", workflowID, i+1)
			return nil
		}

		failed, err := s.runStep(ctx, workflowID, i)
		if err != nil {
			return err
		}
		if failed {
			return nil
		}
	}
	return nil
}

// runParallel dispatches every step concurrently and gathers all of them
// before returning. Individual step failures do not abort the batch; the
// workflow fails afterwards if any member failed.
func (s *WorkflowService) runParallel(ctx context.Context, workflowID string, total int) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var faults []string

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if _, err := s.runStep(ctx, workflowID, idx); err != nil {
				mu.Lock()
				faults = append(faults, fmt.Sprintf("step %d: %v", idx+1, err))
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(faults) > 0 {
		return errors.Errorf("parallel execution faults: %s", strings.Join(faults, "; "))
	}
	return nil
}

// runStep drives one step through executing to completed or failed,
// recording timing, output and history on each transition. The returned bool
// reports a step-level failure (recorded, local to the workflow); the error
// is reserved for orchestration faults such as store failures.
func (s *WorkflowService) runStep(ctx context.Context, workflowID string, idx int) (bool, error) {
	var stepType models.StepType
	var stepID string
	var input map[string]interface{}

	_, err := s.store.UpdateWorkflow(workflowID, func(w *models.WorkflowState) error {
		if idx >= len(w.Steps) {
			return errors.Errorf("step index %d out of range", idx)
		}
		step := &w.Steps[idx]
		now := time.Now()
		step.Status = models.ExecutingStepStatus
		step.StartTime = &now
		w.CurrentStepIndex = &idx
		w.AppendHistory(step.StepID, models.ExecutingStepStatus,
			fmt.Sprintf("Started executing step: %s", step.Description))
		stepType = step.StepType
		stepID = step.StepID
		input = step.InputData
		return nil
	})
	if err != nil {
		return false, err
	}
	s.logger.Debugf("Dispatching step %s (%s) of workflow %s", stepID, stepType, workflowID)

	output, dispatchErr := s.registry.Dispatch(ctx, stepType, input)

	_, err = s.store.UpdateWorkflow(workflowID, func(w *models.WorkflowState) error {
		step := &w.Steps[idx]
		now := time.Now()
		step.EndTime = &now
		if step.StartTime != nil {
			step.Duration = now.Sub(*step.StartTime).Seconds()
		}
		if dispatchErr != nil {
			step.Status = models.FailedStepStatus
			step.ErrorMessage = dispatchErr.Error()
			w.AppendHistory(step.StepID, models.FailedStepStatus,
				fmt.Sprintf("Step failed with error: %v", dispatchErr))
		} else {
			step.Status = models.CompletedStepStatus
			step.OutputData = output
			w.AppendHistory(step.StepID, models.CompletedStepStatus,
				fmt.Sprintf("Step completed successfully: %s", step.Description))
		}
		w.RecomputeProgress()
		return nil
	})
	if err != nil {
		return false, err
	}

	if dispatchErr != nil {
		s.logger.Infof("Step %s of workflow %s failed: %v", stepID, workflowID, dispatchErr)
		return true, nil
	}
	s.logger.Debugf("Step %s of workflow %s completed", stepID, workflowID)
	return false, nil
}
