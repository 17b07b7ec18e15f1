package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/entity"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository on sqlite.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit trail row. Rows are never updated or deleted.
func (r *HistoryRepository) Create(ctx context.Context, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO approval_history (
			request_id, actor_id, actor_name, previous_status, new_status,
			level, outcome, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.RequestID,
		entry.ActorID,
		entry.ActorName,
		entry.PreviousStatus.String(),
		entry.NewStatus.String(),
		entry.Level,
		entry.Outcome.String(),
		entry.Comment,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry", zap.String("request_id", entry.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByRequestID returns the audit trail for a request, oldest first.
func (r *HistoryRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, request_id, actor_id, actor_name, previous_status, new_status,
			level, outcome, comment, created_at
		FROM approval_history
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var e entity.HistoryEntry
		var previousStatus, newStatus, outcome string

		err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.ActorID,
			&e.ActorName,
			&previousStatus,
			&newStatus,
			&e.Level,
			&outcome,
			&e.Comment,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.PreviousStatus = request.Status(previousStatus)
		e.NewStatus = request.Status(newStatus)
		e.Outcome = workflow.Outcome(outcome)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}
