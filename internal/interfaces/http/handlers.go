package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/application/service"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflowService service.WorkflowService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(workflowService service.WorkflowService, logger Logger) *Handlers {
	return &Handlers{
		workflowService: workflowService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateCashAdvanceRequest is the POST body for a new cash advance.
// Amounts are cents.
type CreateCashAdvanceRequest struct {
	RequesterID    string `json:"requester_id" binding:"required"`
	RequesterName  string `json:"requester_name" binding:"required"`
	RequesterEmail string `json:"requester_email" binding:"required,email"`
	Amount         int64  `json:"amount" binding:"required"`
	Purpose        string `json:"purpose"`
}

// CreateLiquidationRequest is the POST body for a new liquidation.
type CreateLiquidationRequest struct {
	RequesterID       string `json:"requester_id" binding:"required"`
	RequesterName     string `json:"requester_name" binding:"required"`
	RequesterEmail    string `json:"requester_email" binding:"required,email"`
	CashAdvanceAmount int64  `json:"cash_advance_amount" binding:"required"`
	TotalExpenses     int64  `json:"total_expenses"`
	ReturnToCompany   int64  `json:"return_to_company"`
	Reimbursement     int64  `json:"reimbursement"`
}

// SubmitActionRequest is the POST body for an approval action.
type SubmitActionRequest struct {
	Level     int    `json:"level" binding:"required"`
	Outcome   string `json:"outcome" binding:"required"`
	ActorID   string `json:"actor_id" binding:"required"`
	ActorName string `json:"actor_name" binding:"required"`
	Comment   string `json:"comment"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateCashAdvance handles POST /api/v1/requests/cash-advance
func (h *Handlers) CreateCashAdvance(c *gin.Context) {
	var body CreateCashAdvanceRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.workflowService.CreateCashAdvance(c.Request.Context(), service.CreateCashAdvanceInput{
		RequesterID:    body.RequesterID,
		RequesterName:  body.RequesterName,
		RequesterEmail: body.RequesterEmail,
		Amount:         body.Amount,
		Purpose:        body.Purpose,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// CreateLiquidation handles POST /api/v1/requests/liquidation
func (h *Handlers) CreateLiquidation(c *gin.Context) {
	var body CreateLiquidationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.workflowService.CreateLiquidation(c.Request.Context(), service.CreateLiquidationInput{
		RequesterID:       body.RequesterID,
		RequesterName:     body.RequesterName,
		RequesterEmail:    body.RequesterEmail,
		CashAdvanceAmount: body.CashAdvanceAmount,
		TotalExpenses:     body.TotalExpenses,
		ReturnToCompany:   body.ReturnToCompany,
		Reimbursement:     body.Reimbursement,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// SubmitAction handles POST /api/v1/requests/:id/actions
func (h *Handlers) SubmitAction(c *gin.Context) {
	var body SubmitActionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.workflowService.SubmitAction(c.Request.Context(), c.Param("id"), workflow.Action{
		Level:     body.Level,
		Outcome:   workflow.Outcome(body.Outcome),
		ActorID:   body.ActorID,
		ActorName: body.ActorName,
		Comment:   body.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.workflowService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := port.RequestFilter{
		Type:   request.Type(c.Query("type")),
		Status: request.Status(c.Query("status")),
	}

	reqs, err := h.workflowService.ListRequests(c.Request.Context(), filter, limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reqs})
}

// GetHistory handles GET /api/v1/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	entries, err := h.workflowService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// respondError maps workflow errors to HTTP status codes. Business-rule
// and concurrency conflicts are 4xx; only infrastructure failure is 5xx.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, service.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, request.ErrInvariantViolation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	if status >= 500 {
		h.logger.Error("Request failed", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
