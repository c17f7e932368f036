package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/inkforge/contentflow/internal/config"
	"github.com/inkforge/contentflow/pkg/models"
	"github.com/inkforge/contentflow/pkg/service"
	"github.com/inkforge/contentflow/pkg/stage"
	"github.com/inkforge/contentflow/pkg/storage"
)

type testLogger struct{}

func (testLogger) Debugf(format string, args ...interface{}) {}
func (testLogger) Infof(format string, args ...interface{})  {}
func (testLogger) Errorf(format string, args ...interface{}) {}

type echoStage struct{}

func (echoStage) Type() models.StepType                   { return models.CustomStepType }
func (echoStage) Validate(map[string]interface{}) error   { return nil }
func (echoStage) Execute(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"echo": input}, nil
}

func newTestRouter(cfg *config.Settings) *gin.Engine {
	if cfg == nil {
		cfg = &config.Settings{RateLimitRequests: 100, RateLimitWindow: 60}
	}
	registry := stage.NewRegistry()
	registry.Register(echoStage{})
	svc := service.NewWorkflowService(storage.NewMemoryStore(), registry, testLogger{})
	return NewServer(svc, cfg, testLogger{}).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestWorkflow(t *testing.T, router *gin.Engine) models.WorkflowResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/workflow/create-workflow", models.WorkflowRequest{
		WorkflowName: "http test",
		Steps: []models.StepRequest{
			{StepType: models.CustomStepType, InputData: map[string]interface{}{"k": "v"}},
		},
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.WorkflowResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(nil)
	w := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestWorkflowEndpoints(t *testing.T) {
	t.Run("CreateWorkflow", func(t *testing.T) {
		router := newTestRouter(nil)
		resp := createTestWorkflow(t, router)
		assert.NotEmpty(t, resp.WorkflowID)
		assert.Equal(t, models.PendingWorkflowStatus, resp.Status)
		assert.Equal(t, 1, resp.TotalSteps)
	})

	t.Run("CreateWorkflowRejectsMissingFields", func(t *testing.T) {
		router := newTestRouter(nil)
		w := doJSON(t, router, http.MethodPost, "/workflow/create-workflow",
			map[string]interface{}{"workflow_name": "no steps"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CreateWorkflowRejectsUnknownStage", func(t *testing.T) {
		router := newTestRouter(nil)
		w := doJSON(t, router, http.MethodPost, "/workflow/create-workflow", models.WorkflowRequest{
			WorkflowName: "bad stage",
			Steps:        []models.StepRequest{{StepType: models.StepType("warp_drive")}},
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ExecuteAndStatus", func(t *testing.T) {
		router := newTestRouter(nil)
		resp := createTestWorkflow(t, router)

		w := doJSON(t, router, http.MethodPost, "/workflow/execute-workflow/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var executed models.WorkflowResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &executed))
		assert.Equal(t, models.CompletedWorkflowStatus, executed.Status)
		assert.Equal(t, 100.0, executed.Progress)

		w = doJSON(t, router, http.MethodGet, "/workflow/workflow-status/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"completed"`)
	})

	t.Run("ExecuteTwiceConflicts", func(t *testing.T) {
		router := newTestRouter(nil)
		resp := createTestWorkflow(t, router)

		w := doJSON(t, router, http.MethodPost, "/workflow/execute-workflow/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/workflow/execute-workflow/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("UnknownWorkflowIs404", func(t *testing.T) {
		router := newTestRouter(nil)
		w := doJSON(t, router, http.MethodGet, "/workflow/workflow-status/wf_missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, http.MethodPost, "/workflow/execute-workflow/wf_missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(t, router, http.MethodDelete, "/workflow/cleanup-workflow/wf_missing", nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("UpdateWorkflowLifecycle", func(t *testing.T) {
		router := newTestRouter(nil)
		resp := createTestWorkflow(t, router)

		// Pausing a pending workflow is an illegal transition.
		w := doJSON(t, router, http.MethodPost, "/workflow/update-workflow", models.WorkflowUpdateRequest{
			WorkflowID: resp.WorkflowID,
			Action:     models.PauseWorkflowAction,
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)

		w = doJSON(t, router, http.MethodPost, "/workflow/update-workflow", models.WorkflowUpdateRequest{
			WorkflowID: resp.WorkflowID,
			Action:     models.CancelWorkflowAction,
		}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

		w = doJSON(t, router, http.MethodPost, "/workflow/update-workflow", models.WorkflowUpdateRequest{
			WorkflowID: resp.WorkflowID,
			Action:     models.WorkflowAction("explode"),
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ListAndStatistics", func(t *testing.T) {
		router := newTestRouter(nil)
		createTestWorkflow(t, router)
		createTestWorkflow(t, router)

		w := doJSON(t, router, http.MethodGet, "/workflow/list-workflows", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var listed struct {
			Workflows []models.WorkflowResponse `json:"workflows"`
			Total     int                       `json:"total"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
		assert.Equal(t, 2, listed.Total)
		assert.Len(t, listed.Workflows, 2)

		w = doJSON(t, router, http.MethodGet, "/workflow/statistics", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var stats models.WorkflowStatistics
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, 2, stats.TotalWorkflows)
	})

	t.Run("Cleanup", func(t *testing.T) {
		router := newTestRouter(nil)
		resp := createTestWorkflow(t, router)

		w := doJSON(t, router, http.MethodDelete, "/workflow/cleanup-workflow/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/workflow/workflow-status/"+resp.WorkflowID, nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.Settings{
		APIKeys:           []string{"secret-key"},
		RateLimitRequests: 100,
		RateLimitWindow:   60,
	}
	router := newTestRouter(cfg)

	t.Run("MissingToken", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/workflow/list-workflows", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("WrongToken", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/workflow/list-workflows", nil,
			map[string]string{"Authorization": "Bearer wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/workflow/list-workflows", nil,
			map[string]string{"Authorization": "Bearer secret-key"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("HealthIsPublic", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Settings{
		RateLimitRequests: 3,
		RateLimitWindow:   60,
	}
	router := newTestRouter(cfg)

	var exhausted bool
	for i := 0; i < 5; i++ {
		w := doJSON(t, router, http.MethodGet, "/workflow/list-workflows", nil, nil)
		if w.Code == http.StatusTooManyRequests {
			exhausted = true
			break
		}
		assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("request %d", i))
	}
	assert.True(t, exhausted, "expected the limiter to reject the burst")
}
