package port

import (
	"context"

	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// RecipientResolver maps a permission key to the email addresses of the
// users holding it. An empty result is not an error: it means nobody
// currently holds the permission and the notification is skipped.
type RecipientResolver interface {
	ResolveEmails(ctx context.Context, permissionKey string) ([]string, error)
}

// Notifier delivers one rendered notification to a recipient list. It is
// attempted at most once per transition and must never touch workflow
// state; delivery failure is the caller's to log, not to retry here.
type Notifier interface {
	Send(ctx context.Context, recipients []string, kind notification.Kind, snap request.Snapshot) error
}

// VoucherGenerator produces a voucher file for a finally-approved request
// and returns its path. Generation failure never blocks the transition.
type VoucherGenerator interface {
	Generate(ctx context.Context, snap request.Snapshot) (string, error)
}
