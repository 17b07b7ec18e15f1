// Package workflow holds the pure decision logic for the two-level
// approval chain. Decide performs no I/O; every error it returns is
// deterministic and computed before any write is attempted.
package workflow

import (
	"fmt"
	"time"

	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// transitionKey identifies one row of the transition table.
type transitionKey struct {
	from    request.Status
	level   int
	outcome Outcome
}

// transition is the computed shape of a valid transition, independent of
// the acting user.
type transition struct {
	next            request.Status
	rejectedAtLevel int
}

// Both request types follow the identical four-row table. Any (status,
// action) pair outside it is an invalid transition, including repeated
// actions on an already-decided level and any action on a terminal status.
var transitions = map[transitionKey]transition{
	{request.StatusPendingLevel1, 1, OutcomeApprove}: {next: request.StatusPendingLevel2},
	{request.StatusPendingLevel1, 1, OutcomeReject}:  {next: request.StatusRejected, rejectedAtLevel: 1},
	{request.StatusPendingLevel2, 2, OutcomeApprove}: {next: request.StatusApproved},
	{request.StatusPendingLevel2, 2, OutcomeReject}:  {next: request.StatusRejected, rejectedAtLevel: 2},
}

// Decide computes the transition for the given action against the current
// record. On success it returns the decision to apply and the
// notifications to emit after the write commits. It fails with
// ErrInvalidTransition when the table has no row for the pair, and with
// request.ErrInvariantViolation when the record's figures do not
// reconcile. Both failures are side-effect free.
func Decide(current *request.Request, action Action, now time.Time) (*Decision, error) {
	if action.Level != 1 && action.Level != 2 {
		return nil, fmt.Errorf("%w: unknown approval level %d", ErrInvalidTransition, action.Level)
	}
	if !action.Outcome.IsValid() {
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidTransition, action.Outcome)
	}

	if err := request.ValidateAmounts(current.Type, current.Amounts); err != nil {
		return nil, err
	}

	t, ok := transitions[transitionKey{current.Status, action.Level, action.Outcome}]
	if !ok {
		return nil, fmt.Errorf("%w: cannot apply level %d %s while request %s is %s",
			ErrInvalidTransition, action.Level, action.Outcome, current.ID, current.Status)
	}

	decision := &Decision{
		NextStatus: t.next,
		Level:      action.Level,
		Record: request.LevelDecision{
			ApproverID:   action.ActorID,
			ApproverName: action.ActorName,
			DecidedAt:    now,
			Comment:      action.Comment,
		},
		RejectedAtLevel: t.rejectedAtLevel,
	}

	switch t.next {
	case request.StatusPendingLevel2:
		decision.Emissions = []Emission{{
			Kind:          notification.KindLevel2ApprovalNeeded,
			PermissionKey: current.Type.ApproverPermission(2),
		}}
	case request.StatusApproved:
		decision.Emissions = []Emission{{
			Kind:        notification.KindRequesterApproved,
			ToRequester: true,
		}}
	case request.StatusRejected:
		decision.Emissions = []Emission{{
			Kind:        notification.KindRequesterRejected,
			ToRequester: true,
		}}
	}

	return decision, nil
}
