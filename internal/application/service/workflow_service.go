// Package service wires the pure decision logic to the request store and
// the notification transports. The committed write is the source of
// truth: notification delivery is best-effort and never rolls a
// transition back.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/entity"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/domain/workflow"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateCashAdvanceInput carries the fields of a new cash advance request.
type CreateCashAdvanceInput struct {
	RequesterID    string
	RequesterName  string
	RequesterEmail string
	Amount         int64
	Purpose        string
}

// CreateLiquidationInput carries the fields of a new liquidation request.
type CreateLiquidationInput struct {
	RequesterID       string
	RequesterName     string
	RequesterEmail    string
	CashAdvanceAmount int64
	TotalExpenses     int64
	ReturnToCompany   int64
	Reimbursement     int64
}

// WorkflowService exposes the approval workflow operations.
type WorkflowService interface {
	CreateCashAdvance(ctx context.Context, input CreateCashAdvanceInput) (*request.Request, error)
	CreateLiquidation(ctx context.Context, input CreateLiquidationInput) (*request.Request, error)
	SubmitAction(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error)
	GetRequest(ctx context.Context, id string) (*request.Request, error)
	ListRequests(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error)
	History(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error)
}

type workflowServiceImpl struct {
	store     port.RequestStore
	history   port.HistoryRepository
	resolver  port.RecipientResolver
	notifier  port.Notifier
	vouchers  port.VoucherGenerator
	txManager port.TransactionManager
	logger    Logger
	now       func() time.Time
}

// NewWorkflowService creates a new WorkflowService. vouchers may be nil to
// disable voucher generation on final approval.
func NewWorkflowService(
	store port.RequestStore,
	history port.HistoryRepository,
	resolver port.RecipientResolver,
	notifier port.Notifier,
	vouchers port.VoucherGenerator,
	txManager port.TransactionManager,
	logger Logger,
) WorkflowService {
	return &workflowServiceImpl{
		store:     store,
		history:   history,
		resolver:  resolver,
		notifier:  notifier,
		vouchers:  vouchers,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateCashAdvance validates and persists a new cash advance request in
// PENDING_LEVEL1, then notifies the level-1 approver group.
func (s *workflowServiceImpl) CreateCashAdvance(ctx context.Context, input CreateCashAdvanceInput) (*request.Request, error) {
	amounts := request.Amounts{Amount: input.Amount, Purpose: input.Purpose}
	return s.createRequest(ctx, request.TypeCashAdvance, input.RequesterID, input.RequesterName, input.RequesterEmail, amounts)
}

// CreateLiquidation validates the liquidation monetary identity and
// persists a new request in PENDING_LEVEL1, then notifies the level-1
// approver group.
func (s *workflowServiceImpl) CreateLiquidation(ctx context.Context, input CreateLiquidationInput) (*request.Request, error) {
	amounts := request.Amounts{
		CashAdvanceAmount: input.CashAdvanceAmount,
		TotalExpenses:     input.TotalExpenses,
		ReturnToCompany:   input.ReturnToCompany,
		Reimbursement:     input.Reimbursement,
	}
	return s.createRequest(ctx, request.TypeLiquidation, input.RequesterID, input.RequesterName, input.RequesterEmail, amounts)
}

func (s *workflowServiceImpl) createRequest(ctx context.Context, typ request.Type, requesterID, requesterName, requesterEmail string, amounts request.Amounts) (*request.Request, error) {
	if err := request.ValidateAmounts(typ, amounts); err != nil {
		return nil, err
	}

	now := s.now()
	req := &request.Request{
		ID:             uuid.NewString(),
		Type:           typ,
		RequesterID:    requesterID,
		RequesterName:  requesterName,
		RequesterEmail: requesterEmail,
		Amounts:        amounts,
		Status:         request.StatusPendingLevel1,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		entry := &entity.HistoryEntry{
			RequestID:      req.ID,
			ActorID:        requesterID,
			ActorName:      requesterName,
			PreviousStatus: "",
			NewStatus:      request.StatusPendingLevel1,
			Comment:        "request submitted",
			CreatedAt:      now,
		}
		if err := s.history.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "type", typ.String())
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.logger.Info("Request created",
		"request_id", req.ID,
		"type", typ.String(),
		"requester_id", requesterID)

	s.dispatch(ctx, req.Snapshot(), []workflow.Emission{{
		Kind:          notification.KindLevel1ApprovalNeeded,
		PermissionKey: typ.ApproverPermission(1),
	}})

	return req, nil
}

// SubmitAction runs the load, decide, guarded-persist, notify pipeline for
// a single approval action. Once the compare-and-swap commits, the
// transition holds regardless of what happens to notification dispatch.
func (s *workflowServiceImpl) SubmitAction(ctx context.Context, requestID string, action workflow.Action) (*request.Request, error) {
	current, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to load request", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}

	now := s.now()
	decision, err := workflow.Decide(current, action, now)
	if err != nil {
		// Business-rule failure: deterministic, computed before any write.
		return nil, err
	}

	next := decision.Apply(current, now)

	var swapped bool
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		swapped, err = s.store.CompareAndSwap(txCtx, next, current.Version)
		if err != nil {
			return fmt.Errorf("compare and swap: %w", err)
		}
		if !swapped {
			return nil
		}
		entry := &entity.HistoryEntry{
			RequestID:      next.ID,
			ActorID:        action.ActorID,
			ActorName:      action.ActorName,
			PreviousStatus: current.Status,
			NewStatus:      next.Status,
			Level:          action.Level,
			Outcome:        action.Outcome,
			Comment:        action.Comment,
			CreatedAt:      now,
		}
		if err := s.history.Create(txCtx, entry); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist transition", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !swapped {
		s.logger.Warn("Lost transition race",
			"request_id", requestID,
			"expected_version", current.Version,
			"actor_id", action.ActorID)
		return nil, fmt.Errorf("%w: request %s version %d", ErrConcurrentModification, requestID, current.Version)
	}

	s.logger.Info("Transition committed",
		"request_id", next.ID,
		"from", current.Status.String(),
		"to", next.Status.String(),
		"level", action.Level,
		"actor_id", action.ActorID,
		"version", next.Version)

	snap := next.Snapshot()
	if next.Status == request.StatusApproved && s.vouchers != nil {
		path, err := s.vouchers.Generate(ctx, snap)
		if err != nil {
			s.logger.Error("Voucher generation failed", "error", err, "request_id", next.ID)
		} else {
			snap.VoucherPath = path
		}
	}

	s.dispatch(ctx, snap, decision.Emissions)

	return next, nil
}

// dispatch resolves recipients and attempts delivery for each emission.
// All groups are attempted before returning; failures are logged per
// group and never surfaced to the caller.
func (s *workflowServiceImpl) dispatch(ctx context.Context, snap request.Snapshot, emissions []workflow.Emission) {
	for _, e := range emissions {
		recipients, err := s.recipientsFor(ctx, snap, e)
		if err != nil {
			s.logger.Error("Failed to resolve recipients",
				"error", err,
				"request_id", snap.ID,
				"kind", e.Kind.String(),
				"permission_key", e.PermissionKey)
			continue
		}
		if len(recipients) == 0 {
			s.logger.Warn("Notification skipped, no recipients",
				"request_id", snap.ID,
				"kind", e.Kind.String(),
				"permission_key", e.PermissionKey)
			continue
		}

		if err := s.notifier.Send(ctx, recipients, e.Kind, snap); err != nil {
			s.logger.Error("Notification delivery failed",
				"error", err,
				"request_id", snap.ID,
				"kind", e.Kind.String(),
				"recipients", len(recipients))
			continue
		}

		s.logger.Info("Notification sent",
			"request_id", snap.ID,
			"kind", e.Kind.String(),
			"recipients", len(recipients))
	}
}

func (s *workflowServiceImpl) recipientsFor(ctx context.Context, snap request.Snapshot, e workflow.Emission) ([]string, error) {
	if e.ToRequester {
		if snap.RequesterEmail == "" {
			return nil, nil
		}
		return []string{snap.RequesterEmail}, nil
	}
	return s.resolver.ResolveEmails(ctx, e.PermissionKey)
}

// GetRequest returns the request by id. Display reads take no version guard.
func (s *workflowServiceImpl) GetRequest(ctx context.Context, id string) (*request.Request, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "request_id", id)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return req, nil
}

// ListRequests returns requests matching the filter, newest first.
func (s *workflowServiceImpl) ListRequests(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error) {
	reqs, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return reqs, nil
}

// History returns the audit trail for a request, oldest first.
func (s *workflowServiceImpl) History(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error) {
	entries, err := s.history.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to load history", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}
