package storage_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/storage"
)

func testState(id string, createdAt time.Time) models.WorkflowState {
	return models.WorkflowState{
		WorkflowID:   id,
		WorkflowName: "test " + id,
		Status:       models.PendingWorkflowStatus,
		Steps: []models.WorkflowStep{
			{StepID: "step_1", StepType: models.CustomStepType, Status: models.PendingStepStatus},
		},
		CreatedAt: createdAt,
	}
}

func TestMemoryStore(t *testing.T) {
	t.Run("SaveAndGet", func(t *testing.T) {
		store := storage.NewMemoryStore()
		state := testState("wf_1", time.Now())
		assert.NoError(t, store.SaveWorkflow(state))

		got, err := store.GetWorkflow("wf_1")
		assert.NoError(t, err)
		assert.Equal(t, "wf_1", got.WorkflowID)
		assert.Equal(t, "test wf_1", got.WorkflowName)
	})

	t.Run("RejectsEmptyID", func(t *testing.T) {
		store := storage.NewMemoryStore()
		err := store.SaveWorkflow(models.WorkflowState{})
		assert.Error(t, err)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		store := storage.NewMemoryStore()
		_, err := store.GetWorkflow("wf_missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("SnapshotsAreIsolated", func(t *testing.T) {
		store := storage.NewMemoryStore()
		assert.NoError(t, store.SaveWorkflow(testState("wf_iso", time.Now())))

		got, err := store.GetWorkflow("wf_iso")
		assert.NoError(t, err)
		got.Steps[0].Status = models.CompletedStepStatus
		got.WorkflowName = "mutated"

		fresh, err := store.GetWorkflow("wf_iso")
		assert.NoError(t, err)
		assert.Equal(t, models.PendingStepStatus, fresh.Steps[0].Status)
		assert.Equal(t, "test wf_iso", fresh.WorkflowName)
	})

	t.Run("UpdateMutatesAtomically", func(t *testing.T) {
		store := storage.NewMemoryStore()
		assert.NoError(t, store.SaveWorkflow(testState("wf_upd", time.Now())))

		updated, err := store.UpdateWorkflow("wf_upd", func(w *models.WorkflowState) error {
			w.Status = models.RunningWorkflowStatus
			w.AppendHistory("step_1", models.ExecutingStepStatus, "started")
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, models.RunningWorkflowStatus, updated.Status)
		assert.Len(t, updated.History, 1)
	})

	t.Run("UpdateErrorLeavesStateUntouched", func(t *testing.T) {
		store := storage.NewMemoryStore()
		assert.NoError(t, store.SaveWorkflow(testState("wf_ro", time.Now())))

		_, err := store.UpdateWorkflow("wf_ro", func(w *models.WorkflowState) error {
			w.Status = models.RunningWorkflowStatus
			return fmt.Errorf("nope")
		})
		assert.Error(t, err)

		got, err := store.GetWorkflow("wf_ro")
		assert.NoError(t, err)
		assert.Equal(t, models.PendingWorkflowStatus, got.Status)
	})

	t.Run("ConcurrentUpdatesDoNotLoseWrites", func(t *testing.T) {
		store := storage.NewMemoryStore()
		assert.NoError(t, store.SaveWorkflow(testState("wf_conc", time.Now())))

		const writers = 50
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := store.UpdateWorkflow("wf_conc", func(w *models.WorkflowState) error {
					w.AppendHistory("step_1", models.ExecutingStepStatus, fmt.Sprintf("update %d", n))
					return nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := store.GetWorkflow("wf_conc")
		assert.NoError(t, err)
		assert.Len(t, got.History, writers)
	})

	t.Run("DeleteWorkflow", func(t *testing.T) {
		store := storage.NewMemoryStore()
		assert.NoError(t, store.SaveWorkflow(testState("wf_del", time.Now())))
		assert.NoError(t, store.DeleteWorkflow("wf_del"))
		assert.ErrorIs(t, store.DeleteWorkflow("wf_del"), storage.ErrNotFound)
	})

	t.Run("ListSortedByCreation", func(t *testing.T) {
		store := storage.NewMemoryStore()
		base := time.Now()
		assert.NoError(t, store.SaveWorkflow(testState("wf_b", base.Add(time.Second))))
		assert.NoError(t, store.SaveWorkflow(testState("wf_a", base)))
		assert.NoError(t, store.SaveWorkflow(testState("wf_c", base.Add(2*time.Second))))

		states, err := store.ListWorkflows()
		assert.NoError(t, err)
		assert.Len(t, states, 3)
		assert.Equal(t, "wf_a", states[0].WorkflowID)
		assert.Equal(t, "wf_b", states[1].WorkflowID)
		assert.Equal(t, "wf_c", states[2].WorkflowID)
	})
}
