package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/application/service"
	"github.com/fintrak/approval-workflow/internal/domain/entity"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/domain/workflow"
)

// mockWorkflowService implements service.WorkflowService with overridable funcs
type mockWorkflowService struct {
	createCashAdvanceFunc func(ctx context.Context, input service.CreateCashAdvanceInput) (*request.Request, error)
	createLiquidationFunc func(ctx context.Context, input service.CreateLiquidationInput) (*request.Request, error)
	submitActionFunc      func(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error)
	getRequestFunc        func(ctx context.Context, id string) (*request.Request, error)
	listRequestsFunc      func(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error)
	historyFunc           func(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error)
}

func (m *mockWorkflowService) CreateCashAdvance(ctx context.Context, input service.CreateCashAdvanceInput) (*request.Request, error) {
	if m.createCashAdvanceFunc != nil {
		return m.createCashAdvanceFunc(ctx, input)
	}
	return &request.Request{ID: "ca-001", Type: request.TypeCashAdvance, Status: request.StatusPendingLevel1}, nil
}

func (m *mockWorkflowService) CreateLiquidation(ctx context.Context, input service.CreateLiquidationInput) (*request.Request, error) {
	if m.createLiquidationFunc != nil {
		return m.createLiquidationFunc(ctx, input)
	}
	return &request.Request{ID: "lq-001", Type: request.TypeLiquidation, Status: request.StatusPendingLevel1}, nil
}

func (m *mockWorkflowService) SubmitAction(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error) {
	if m.submitActionFunc != nil {
		return m.submitActionFunc(ctx, requestID, action)
	}
	return &request.Request{ID: requestID, Status: request.StatusPendingLevel2}, nil
}

func (m *mockWorkflowService) GetRequest(ctx context.Context, id string) (*request.Request, error) {
	if m.getRequestFunc != nil {
		return m.getRequestFunc(ctx, id)
	}
	return &request.Request{ID: id, Status: request.StatusPendingLevel1}, nil
}

func (m *mockWorkflowService) ListRequests(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error) {
	if m.listRequestsFunc != nil {
		return m.listRequestsFunc(ctx, filter, limit, offset)
	}
	return []*request.Request{}, nil
}

func (m *mockWorkflowService) History(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, requestID)
	}
	return []*entity.HistoryEntry{}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

func newTestServer(svc service.WorkflowService) *Server {
	return NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, svc, nopLogger{})
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&mockWorkflowService{})
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateCashAdvance(t *testing.T) {
	var got service.CreateCashAdvanceInput
	svc := &mockWorkflowService{
		createCashAdvanceFunc: func(ctx context.Context, input service.CreateCashAdvanceInput) (*request.Request, error) {
			got = input
			return &request.Request{ID: "ca-001", Status: request.StatusPendingLevel1}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/requests/cash-advance", map[string]interface{}{
		"requester_id":    "u-100",
		"requester_name":  "Ana Cruz",
		"requester_email": "ana@example.com",
		"amount":          500000,
		"purpose":         "personal",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "u-100", got.RequesterID)
	assert.Equal(t, int64(500000), got.Amount)
}

func TestCreateCashAdvance_MissingFields(t *testing.T) {
	srv := newTestServer(&mockWorkflowService{})
	w := doJSON(t, srv, http.MethodPost, "/api/v1/requests/cash-advance", map[string]interface{}{
		"requester_id": "u-100",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateLiquidation_InvariantViolation(t *testing.T) {
	svc := &mockWorkflowService{
		createLiquidationFunc: func(ctx context.Context, input service.CreateLiquidationInput) (*request.Request, error) {
			return nil, fmt.Errorf("%w: figures do not reconcile", request.ErrInvariantViolation)
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/requests/liquidation", map[string]interface{}{
		"requester_id":        "u-100",
		"requester_name":      "Ana Cruz",
		"requester_email":     "ana@example.com",
		"cash_advance_amount": 300000,
		"total_expenses":      280000,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSubmitAction(t *testing.T) {
	var gotID string
	var gotAction workflow.Action
	svc := &mockWorkflowService{
		submitActionFunc: func(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error) {
			gotID = requestID
			gotAction = action
			return &request.Request{ID: requestID, Status: request.StatusPendingLevel2}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodPost, "/api/v1/requests/ca-001/actions", map[string]interface{}{
		"level":      1,
		"outcome":    "APPROVE",
		"actor_id":   "u-200",
		"actor_name": "Jane",
		"comment":    "ok",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ca-001", gotID)
	assert.Equal(t, 1, gotAction.Level)
	assert.Equal(t, workflow.OutcomeApprove, gotAction.Outcome)
	assert.Equal(t, "ok", gotAction.Comment)
}

func TestSubmitAction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid transition", workflow.ErrInvalidTransition, http.StatusConflict},
		{"concurrent modification", service.ErrConcurrentModification, http.StatusConflict},
		{"invariant violation", request.ErrInvariantViolation, http.StatusUnprocessableEntity},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"store unavailable", service.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockWorkflowService{
				submitActionFunc: func(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error) {
					return nil, fmt.Errorf("wrapped: %w", tt.err)
				},
			}
			srv := newTestServer(svc)

			w := doJSON(t, srv, http.MethodPost, "/api/v1/requests/ca-001/actions", map[string]interface{}{
				"level":      1,
				"outcome":    "APPROVE",
				"actor_id":   "u-200",
				"actor_name": "Jane",
			})

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestListRequests_Filter(t *testing.T) {
	var gotFilter port.RequestFilter
	var gotLimit int
	svc := &mockWorkflowService{
		listRequestsFunc: func(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error) {
			gotFilter = filter
			gotLimit = limit
			return []*request.Request{{ID: "ca-001"}}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/requests?type=CASH_ADVANCE&status=PENDING_LEVEL1&limit=10", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, request.TypeCashAdvance, gotFilter.Type)
	assert.Equal(t, request.StatusPendingLevel1, gotFilter.Status)
	assert.Equal(t, 10, gotLimit)
}

func TestGetHistory(t *testing.T) {
	svc := &mockWorkflowService{
		historyFunc: func(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error) {
			return []*entity.HistoryEntry{
				{RequestID: requestID, NewStatus: request.StatusPendingLevel1},
				{RequestID: requestID, NewStatus: request.StatusPendingLevel2, Level: 1},
			}, nil
		},
	}
	srv := newTestServer(svc)

	w := doJSON(t, srv, http.MethodGet, "/api/v1/requests/ca-001/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

