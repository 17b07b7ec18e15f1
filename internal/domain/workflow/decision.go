package workflow

import (
	"time"

	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// Emission names one notification a committed transition should trigger.
// Exactly one audience is set: a permission group or the requester.
type Emission struct {
	Kind notification.Kind
	// PermissionKey, when non-empty, is resolved to a recipient list by
	// the recipient resolver.
	PermissionKey string
	// ToRequester addresses the notification to the requester's email.
	ToRequester bool
}

// Decision is the computed result of a valid action: the status to move
// to, the level record to write, and the notifications to emit once the
// write commits. It carries no I/O of its own.
type Decision struct {
	NextStatus      request.Status
	Level           int
	Record          request.LevelDecision
	RejectedAtLevel int
	Emissions       []Emission
}

// Apply returns a copy of the request with the decision applied and the
// version incremented. The input record is left untouched.
func (d *Decision) Apply(current *request.Request, now time.Time) *request.Request {
	next := current.Clone()
	next.Status = d.NextStatus
	record := d.Record
	if d.Level == 1 {
		next.Level1 = &record
	} else {
		next.Level2 = &record
	}
	if d.RejectedAtLevel != 0 {
		next.RejectedAtLevel = d.RejectedAtLevel
	}
	next.Version++
	next.UpdatedAt = now
	return next
}
