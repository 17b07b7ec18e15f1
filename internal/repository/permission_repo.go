package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"go.uber.org/zap"
)

// PermissionRepository implements port.RecipientResolver against the
// users and user_permissions tables.
type PermissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(db *sql.DB, logger *zap.Logger) port.RecipientResolver {
	return &PermissionRepository{
		db:     db,
		logger: logger,
	}
}

// ResolveEmails returns the email addresses of all users holding the
// permission. An empty result is returned as an empty slice, not an
// error; the orchestrator decides what a missing audience means.
func (r *PermissionRepository) ResolveEmails(ctx context.Context, permissionKey string) ([]string, error) {
	query := `
		SELECT u.email
		FROM users u
		JOIN user_permissions p ON p.user_id = u.id
		WHERE p.permission_key = ? AND u.active = 1
		ORDER BY u.email
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, permissionKey)
	if err != nil {
		r.logger.Error("Failed to resolve recipients", zap.String("permission_key", permissionKey), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}
