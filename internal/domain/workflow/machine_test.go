package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

var testNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func pendingCashAdvance() *request.Request {
	return &request.Request{
		ID:             "ca-001",
		Type:           request.TypeCashAdvance,
		RequesterID:    "u-100",
		RequesterName:  "Ana Cruz",
		RequesterEmail: "ana@example.com",
		Amounts:        request.Amounts{Amount: 500000, Purpose: "site visit"},
		Status:         request.StatusPendingLevel1,
		Version:        1,
		CreatedAt:      testNow.Add(-time.Hour),
	}
}

func pendingLiquidation() *request.Request {
	return &request.Request{
		ID:             "lq-001",
		Type:           request.TypeLiquidation,
		RequesterID:    "u-100",
		RequesterName:  "Ana Cruz",
		RequesterEmail: "ana@example.com",
		Amounts: request.Amounts{
			CashAdvanceAmount: 300000,
			TotalExpenses:     280000,
			ReturnToCompany:   20000,
		},
		Status:    request.StatusPendingLevel1,
		Version:   1,
		CreatedAt: testNow.Add(-time.Hour),
	}
}

func TestDecide_Level1Approve(t *testing.T) {
	req := pendingCashAdvance()
	action := Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200", ActorName: "Jane"}

	d, err := Decide(req, action, testNow)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.NextStatus != request.StatusPendingLevel2 {
		t.Errorf("NextStatus = %v, want %v", d.NextStatus, request.StatusPendingLevel2)
	}
	if d.RejectedAtLevel != 0 {
		t.Errorf("RejectedAtLevel = %d, want 0", d.RejectedAtLevel)
	}
	if len(d.Emissions) != 1 {
		t.Fatalf("Emissions = %d, want 1", len(d.Emissions))
	}
	e := d.Emissions[0]
	if e.Kind != notification.KindLevel2ApprovalNeeded {
		t.Errorf("Emission kind = %v, want %v", e.Kind, notification.KindLevel2ApprovalNeeded)
	}
	if e.PermissionKey != "cash_advance.approve.level2" {
		t.Errorf("PermissionKey = %q, want %q", e.PermissionKey, "cash_advance.approve.level2")
	}
	if e.ToRequester {
		t.Error("level-2 approval request should not go to the requester")
	}
}

func TestDecide_Level1Reject(t *testing.T) {
	req := pendingCashAdvance()
	action := Action{Level: 1, Outcome: OutcomeReject, ActorID: "u-200", ActorName: "Jane", Comment: "insufficient budget"}

	d, err := Decide(req, action, testNow)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.NextStatus != request.StatusRejected {
		t.Errorf("NextStatus = %v, want %v", d.NextStatus, request.StatusRejected)
	}
	if d.RejectedAtLevel != 1 {
		t.Errorf("RejectedAtLevel = %d, want 1", d.RejectedAtLevel)
	}
	if d.Record.Comment != "insufficient budget" {
		t.Errorf("Record.Comment = %q", d.Record.Comment)
	}
	if len(d.Emissions) != 1 || d.Emissions[0].Kind != notification.KindRequesterRejected {
		t.Errorf("expected single RequesterRejected emission, got %+v", d.Emissions)
	}
	if !d.Emissions[0].ToRequester {
		t.Error("rejection notice must be addressed to the requester")
	}
}

func TestDecide_Level2Transitions(t *testing.T) {
	tests := []struct {
		name            string
		outcome         Outcome
		wantStatus      request.Status
		wantRejectedAt  int
		wantKind        notification.Kind
	}{
		{"approve", OutcomeApprove, request.StatusApproved, 0, notification.KindRequesterApproved},
		{"reject", OutcomeReject, request.StatusRejected, 2, notification.KindRequesterRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pendingCashAdvance()
			req.Status = request.StatusPendingLevel2
			req.Level1 = &request.LevelDecision{ApproverID: "u-200", ApproverName: "Jane", DecidedAt: testNow.Add(-time.Minute)}

			d, err := Decide(req, Action{Level: 2, Outcome: tt.outcome, ActorID: "u-300", ActorName: "Mark"}, testNow)
			if err != nil {
				t.Fatalf("Decide() error = %v", err)
			}
			if d.NextStatus != tt.wantStatus {
				t.Errorf("NextStatus = %v, want %v", d.NextStatus, tt.wantStatus)
			}
			if d.RejectedAtLevel != tt.wantRejectedAt {
				t.Errorf("RejectedAtLevel = %d, want %d", d.RejectedAtLevel, tt.wantRejectedAt)
			}
			if len(d.Emissions) != 1 || d.Emissions[0].Kind != tt.wantKind {
				t.Errorf("emissions = %+v, want one %v", d.Emissions, tt.wantKind)
			}
		})
	}
}

func TestDecide_InvalidTransitions(t *testing.T) {
	approved := pendingCashAdvance()
	approved.Status = request.StatusApproved

	rejected := pendingCashAdvance()
	rejected.Status = request.StatusRejected
	rejected.RejectedAtLevel = 1

	awaitingLevel2 := pendingCashAdvance()
	awaitingLevel2.Status = request.StatusPendingLevel2

	tests := []struct {
		name    string
		current *request.Request
		action  Action
	}{
		{"level 2 action while pending level 1", pendingCashAdvance(), Action{Level: 2, Outcome: OutcomeApprove}},
		{"level 1 action after level 1 approved", awaitingLevel2, Action{Level: 1, Outcome: OutcomeApprove}},
		{"level 1 reject after level 1 approved", awaitingLevel2, Action{Level: 1, Outcome: OutcomeReject}},
		{"any action on approved", approved, Action{Level: 2, Outcome: OutcomeApprove}},
		{"any action on rejected", rejected, Action{Level: 1, Outcome: OutcomeApprove}},
		{"level 2 action on rejected", rejected, Action{Level: 2, Outcome: OutcomeReject}},
		{"unknown level", pendingCashAdvance(), Action{Level: 3, Outcome: OutcomeApprove}},
		{"unknown outcome", pendingCashAdvance(), Action{Level: 1, Outcome: Outcome("MAYBE")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.action.ActorID = "u-200"
			_, err := Decide(tt.current, tt.action, testNow)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Decide() error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

// Re-submitting an already-applied action must fail, not silently succeed.
func TestDecide_DoubleApplyFails(t *testing.T) {
	req := pendingCashAdvance()
	action := Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200", ActorName: "Jane"}

	d, err := Decide(req, action, testNow)
	if err != nil {
		t.Fatalf("first Decide() error = %v", err)
	}
	next := d.Apply(req, testNow)

	_, err = Decide(next, action, testNow)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Decide() error = %v, want ErrInvalidTransition", err)
	}
}

func TestDecide_LiquidationInvariant(t *testing.T) {
	req := pendingLiquidation()
	if _, err := Decide(req, Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200"}, testNow); err != nil {
		t.Fatalf("reconciling liquidation should pass, got %v", err)
	}

	broken := pendingLiquidation()
	broken.Amounts.ReturnToCompany = 0 // 300000 - 0 + 0 != 280000
	_, err := Decide(broken, Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200"}, testNow)
	if !errors.Is(err, request.ErrInvariantViolation) {
		t.Errorf("Decide() error = %v, want ErrInvariantViolation", err)
	}
}

func TestDecision_Apply(t *testing.T) {
	req := pendingCashAdvance()
	d, err := Decide(req, Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200", ActorName: "Jane"}, testNow)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	next := d.Apply(req, testNow)

	if req.Status != request.StatusPendingLevel1 || req.Level1 != nil || req.Version != 1 {
		t.Error("Apply() must not mutate the input record")
	}
	if next.Status != request.StatusPendingLevel2 {
		t.Errorf("next.Status = %v", next.Status)
	}
	if next.Version != 2 {
		t.Errorf("next.Version = %d, want 2", next.Version)
	}
	if next.Level1 == nil || next.Level1.ApproverID != "u-200" {
		t.Errorf("next.Level1 = %+v", next.Level1)
	}
	if next.Level2 != nil {
		t.Error("next.Level2 should remain unset after a level-1 decision")
	}
	if !next.UpdatedAt.Equal(testNow) {
		t.Errorf("next.UpdatedAt = %v", next.UpdatedAt)
	}
}

// Full approve-approve round trip through the pure machine.
func TestDecide_RoundTrip(t *testing.T) {
	req := pendingCashAdvance()

	d1, err := Decide(req, Action{Level: 1, Outcome: OutcomeApprove, ActorID: "u-200", ActorName: "Jane"}, testNow)
	if err != nil {
		t.Fatalf("level 1 Decide() error = %v", err)
	}
	afterL1 := d1.Apply(req, testNow)

	d2, err := Decide(afterL1, Action{Level: 2, Outcome: OutcomeApprove, ActorID: "u-300", ActorName: "Mark"}, testNow.Add(time.Minute))
	if err != nil {
		t.Fatalf("level 2 Decide() error = %v", err)
	}
	final := d2.Apply(afterL1, testNow.Add(time.Minute))

	if final.Status != request.StatusApproved {
		t.Errorf("final.Status = %v, want APPROVED", final.Status)
	}
	if final.Level1 == nil || final.Level2 == nil {
		t.Error("both level records must be populated after full approval")
	}
	if final.RejectedAtLevel != 0 {
		t.Errorf("RejectedAtLevel = %d, want 0", final.RejectedAtLevel)
	}
	if final.Version != 3 {
		t.Errorf("final.Version = %d, want 3", final.Version)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   request.Status
		expected bool
	}{
		{request.StatusPendingLevel1, false},
		{request.StatusPendingLevel2, false},
		{request.StatusApproved, true},
		{request.StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}
