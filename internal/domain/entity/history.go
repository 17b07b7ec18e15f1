package entity

import (
	"time"

	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/domain/workflow"
)

// HistoryEntry is one immutable row of the approval audit trail, written
// in the same transaction as the status change it records.
type HistoryEntry struct {
	ID             int64            `json:"id"`
	RequestID      string           `json:"request_id"`
	ActorID        string           `json:"actor_id"`
	ActorName      string           `json:"actor_name"`
	PreviousStatus request.Status   `json:"previous_status"`
	NewStatus      request.Status   `json:"new_status"`
	Level          int              `json:"level,omitempty"`
	Outcome        workflow.Outcome `json:"outcome,omitempty"`
	Comment        string           `json:"comment,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
