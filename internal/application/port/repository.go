package port

import (
	"context"

	"github.com/fintrak/approval-workflow/internal/domain/entity"
	"github.com/fintrak/approval-workflow/internal/domain/request"
)

// RequestFilter narrows List results. Zero values mean no filtering.
type RequestFilter struct {
	Type   request.Type
	Status request.Status
}

// RequestStore defines persistence operations for approval requests.
// CompareAndSwap is the only write path for existing records: it persists
// the record as-is only while the stored version still equals
// expectedVersion, and reports false (not an error) when the guard fails.
type RequestStore interface {
	Create(ctx context.Context, req *request.Request) error
	GetByID(ctx context.Context, id string) (*request.Request, error)
	CompareAndSwap(ctx context.Context, req *request.Request, expectedVersion int64) (bool, error)
	List(ctx context.Context, filter RequestFilter, limit, offset int) ([]*request.Request, error)
}

// HistoryRepository defines persistence operations for the audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, entry *entity.HistoryEntry) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error)
}

// TransactionManager runs a function within a database transaction.
// Repositories invoked with the provided context join the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
