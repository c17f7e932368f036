package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkforge/contentflow/pkg/models"
)

func TestNewWorkflowID(t *testing.T) {
	id := models.NewWorkflowID()
	assert.True(t, strings.HasPrefix(id, "wf_"))
	assert.NotEqual(t, id, models.NewWorkflowID())
}

func TestRecomputeProgress(t *testing.T) {
	t.Run("NoSteps", func(t *testing.T) {
		w := models.WorkflowState{}
		w.RecomputeProgress()
		assert.Equal(t, 0.0, w.Progress)
	})

	t.Run("PartialCompletion", func(t *testing.T) {
		w := models.WorkflowState{
			Steps: []models.WorkflowStep{
				{Status: models.CompletedStepStatus},
				{Status: models.FailedStepStatus},
				{Status: models.PendingStepStatus},
				{Status: models.CompletedStepStatus},
			},
		}
		w.RecomputeProgress()
		assert.Equal(t, 50.0, w.Progress)
		assert.Equal(t, 2, w.CompletedSteps())
	})

	t.Run("AllComplete", func(t *testing.T) {
		w := models.WorkflowState{
			Steps: []models.WorkflowStep{
				{Status: models.CompletedStepStatus},
				{Status: models.CompletedStepStatus},
			},
		}
		w.RecomputeProgress()
		assert.Equal(t, 100.0, w.Progress)
	})
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, models.CompletedWorkflowStatus.Terminal())
	assert.True(t, models.FailedWorkflowStatus.Terminal())
	assert.True(t, models.CancelledWorkflowStatus.Terminal())
	assert.False(t, models.PendingWorkflowStatus.Terminal())
	assert.False(t, models.RunningWorkflowStatus.Terminal())
	assert.False(t, models.PausedWorkflowStatus.Terminal())
}

func TestAppendHistory(t *testing.T) {
	w := models.WorkflowState{WorkflowID: "wf_x"}
	w.AppendHistory("step_1", models.ExecutingStepStatus, "started")
	w.AppendHistory("step_1", models.CompletedStepStatus, "done")

	assert.Len(t, w.History, 2)
	assert.Equal(t, "wf_x", w.History[0].WorkflowID)
	assert.Equal(t, "started", w.History[0].Message)
	assert.False(t, w.History[1].Timestamp.Before(w.History[0].Timestamp))
}

func TestCloneIsDeep(t *testing.T) {
	idx := 0
	w := models.WorkflowState{
		WorkflowID:       "wf_clone",
		CurrentStepIndex: &idx,
		Steps: []models.WorkflowStep{
			{
				StepID:    "step_1",
				StepType:  models.CustomStepType,
				InputData: map[string]interface{}{"nested": map[string]interface{}{"k": "v"}},
			},
		},
		Metadata: map[string]interface{}{models.ParallelExecutionKey: true},
	}
	w.AppendHistory("step_1", models.PendingStepStatus, "created")

	clone := w.Clone()
	clone.Steps[0].InputData["nested"].(map[string]interface{})["k"] = "changed"
	clone.Metadata["extra"] = true
	clone.History[0].Message = "rewritten"
	*clone.CurrentStepIndex = 7

	assert.Equal(t, "v", w.Steps[0].InputData["nested"].(map[string]interface{})["k"])
	assert.NotContains(t, w.Metadata, "extra")
	assert.Equal(t, "created", w.History[0].Message)
	assert.Equal(t, 0, *w.CurrentStepIndex)
	assert.True(t, clone.ParallelExecution())
}

func TestStepReset(t *testing.T) {
	s := models.WorkflowStep{
		StepID:       "step_1",
		Status:       models.FailedStepStatus,
		OutputData:   map[string]interface{}{"x": 1},
		ErrorMessage: "boom",
		Duration:     1.5,
	}
	s.Reset()
	assert.Equal(t, models.PendingStepStatus, s.Status)
	assert.Nil(t, s.OutputData)
	assert.Empty(t, s.ErrorMessage)
	assert.Zero(t, s.Duration)
}

func TestComputeStatistics(t *testing.T) {
	states := []models.WorkflowState{
		{Status: models.CompletedWorkflowStatus},
		{Status: models.CompletedWorkflowStatus},
		{Status: models.FailedWorkflowStatus},
		{Status: models.RunningWorkflowStatus},
		{Status: models.PausedWorkflowStatus},
		{Status: models.PendingWorkflowStatus},
	}
	stats := models.ComputeStatistics(states)
	assert.Equal(t, 6, stats.TotalWorkflows)
	assert.Equal(t, 2, stats.ActiveWorkflows)
	assert.Equal(t, 2, stats.CompletedWorkflows)
	assert.Equal(t, 1, stats.FailedWorkflows)
	assert.InDelta(t, 66.67, stats.SuccessRate, 0.01)
	assert.Nil(t, stats.AverageDuration)
}
