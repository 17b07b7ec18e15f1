package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"go.uber.org/zap"
)

// RequestRepository implements port.RequestStore on sqlite.
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestStore {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, request_type, requester_id, requester_name, requester_email,
	amount, purpose, cash_advance_amount, total_expenses, return_to_company, reimbursement,
	status, rejected_at_level,
	level1_approver_id, level1_approver_name, level1_decided_at, level1_comment,
	level2_approver_id, level2_approver_name, level2_decided_at, level2_comment,
	version, created_at, updated_at`

// Create inserts a new request record.
func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	query := `
		INSERT INTO requests (
			id, request_type, requester_id, requester_name, requester_email,
			amount, purpose, cash_advance_amount, total_expenses, return_to_company, reimbursement,
			status, rejected_at_level, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		req.Type.String(),
		req.RequesterID,
		req.RequesterName,
		req.RequesterEmail,
		req.Amounts.Amount,
		req.Amounts.Purpose,
		req.Amounts.CashAdvanceAmount,
		req.Amounts.TotalExpenses,
		req.Amounts.ReturnToCompany,
		req.Amounts.Reimbursement,
		req.Status.String(),
		req.RejectedAtLevel,
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by id. Returns (nil, nil) when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*request.Request, error) {
	query := `SELECT` + requestColumns + ` FROM requests WHERE id = ?`

	req, err := scanRequest(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// CompareAndSwap persists the record only while the stored version still
// equals expectedVersion. Returns false, not an error, when the guard
// fails; the caller distinguishes a lost race from storage failure.
func (r *RequestRepository) CompareAndSwap(ctx context.Context, req *request.Request, expectedVersion int64) (bool, error) {
	query := `
		UPDATE requests SET
			status = ?,
			rejected_at_level = ?,
			level1_approver_id = ?, level1_approver_name = ?, level1_decided_at = ?, level1_comment = ?,
			level2_approver_id = ?, level2_approver_name = ?, level2_decided_at = ?, level2_comment = ?,
			version = ?,
			updated_at = ?
		WHERE id = ? AND version = ?
	`

	l1ID, l1Name, l1At, l1Comment := levelFields(req.Level1)
	l2ID, l2Name, l2At, l2Comment := levelFields(req.Level2)

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		req.Status.String(),
		req.RejectedAtLevel,
		l1ID, l1Name, l1At, l1Comment,
		l2ID, l2Name, l2At, l2Comment,
		req.Version,
		req.UpdatedAt,
		req.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to write request", zap.String("id", req.ID), zap.Error(err))
		return false, fmt.Errorf("failed to write request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected == 1, nil
}

// List retrieves requests matching the filter, newest first.
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter, limit, offset int) ([]*request.Request, error) {
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "request_type = ?")
		args = append(args, filter.Type.String())
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status.String())
	}

	query := `SELECT` + requestColumns + ` FROM requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*request.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*request.Request, error) {
	var req request.Request
	var requestType, status string
	var l1ID, l1Name, l1Comment sql.NullString
	var l1At sql.NullTime
	var l2ID, l2Name, l2Comment sql.NullString
	var l2At sql.NullTime

	err := row.Scan(
		&req.ID,
		&requestType,
		&req.RequesterID,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.Amounts.Amount,
		&req.Amounts.Purpose,
		&req.Amounts.CashAdvanceAmount,
		&req.Amounts.TotalExpenses,
		&req.Amounts.ReturnToCompany,
		&req.Amounts.Reimbursement,
		&status,
		&req.RejectedAtLevel,
		&l1ID, &l1Name, &l1At, &l1Comment,
		&l2ID, &l2Name, &l2At, &l2Comment,
		&req.Version,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Type = request.Type(requestType)
	req.Status = request.Status(status)
	req.Level1 = levelRecord(l1ID, l1Name, l1At, l1Comment)
	req.Level2 = levelRecord(l2ID, l2Name, l2At, l2Comment)

	return &req, nil
}

func levelFields(ld *request.LevelDecision) (id, name sql.NullString, at sql.NullTime, comment sql.NullString) {
	if ld == nil {
		return
	}
	id = sql.NullString{String: ld.ApproverID, Valid: true}
	name = sql.NullString{String: ld.ApproverName, Valid: true}
	at = sql.NullTime{Time: ld.DecidedAt, Valid: true}
	comment = sql.NullString{String: ld.Comment, Valid: true}
	return
}

func levelRecord(id, name sql.NullString, at sql.NullTime, comment sql.NullString) *request.LevelDecision {
	if !id.Valid {
		return nil
	}
	ld := &request.LevelDecision{
		ApproverID:   id.String,
		ApproverName: name.String,
		Comment:      comment.String,
	}
	if at.Valid {
		ld.DecidedAt = at.Time.UTC()
	}
	return ld
}

