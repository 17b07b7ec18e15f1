// Package email delivers workflow notifications over SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// Config holds SMTP configuration
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromAddr   string
	SenderName string
}

// Sender implements port.Notifier over SMTP. One message per call; the
// orchestrator owns retry policy (currently: none).
type Sender struct {
	cfg    Config
	client *mail.Client
	logger *zap.Logger
}

// NewSender creates a new SMTP sender
func NewSender(cfg Config, logger *zap.Logger) (*Sender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Sender{
		cfg:    cfg,
		client: client,
		logger: logger,
	}, nil
}

// Send renders the notification and delivers a single message to all
// recipients. It never touches workflow state.
func (s *Sender) Send(ctx context.Context, recipients []string, kind notification.Kind, snap request.Snapshot) error {
	rendered := notification.Render(kind, snap)

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.cfg.SenderName, s.cfg.FromAddr); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("failed to set recipients: %w", err)
	}
	msg.Subject(rendered.Subject)
	msg.SetBodyString(mail.TypeTextPlain, rendered.Body)

	for _, path := range rendered.Attachments {
		msg.AttachFile(path)
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("request_id", snap.ID),
			zap.String("kind", kind.String()),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent",
		zap.String("request_id", snap.ID),
		zap.String("kind", kind.String()),
		zap.Int("recipients", len(recipients)))

	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Sender)(nil)
