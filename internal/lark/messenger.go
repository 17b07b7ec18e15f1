// Package lark delivers workflow notifications through Lark instead of
// SMTP, for deployments where approvers live in Lark rather than a mail
// client. Selected via the notifier.transport config key.
package lark

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/request"
	"github.com/fintrak/approval-workflow/internal/notification"
)

// Config holds Lark app credentials
type Config struct {
	AppID     string
	AppSecret string
}

// Messenger implements port.Notifier on the Lark messaging API,
// addressing recipients by their email.
type Messenger struct {
	client *lark.Client
	logger *zap.Logger
}

// NewMessenger creates a new Lark messenger
func NewMessenger(cfg Config, logger *zap.Logger) *Messenger {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)

	return &Messenger{
		client: client,
		logger: logger,
	}
}

// Send renders the notification and delivers one text message per
// recipient. Attachments are referenced by path in the message body;
// Lark file upload is not part of this transport.
func (m *Messenger) Send(ctx context.Context, recipients []string, kind notification.Kind, snap request.Snapshot) error {
	rendered := notification.Render(kind, snap)
	text := rendered.Subject + "\n\n" + rendered.Body

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode message content: %w", err)
	}

	var firstErr error
	for _, recipient := range recipients {
		if err := m.sendTo(ctx, recipient, string(content)); err != nil {
			m.logger.Error("Failed to send Lark message",
				zap.String("recipient", recipient),
				zap.String("kind", kind.String()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return fmt.Errorf("failed to deliver to one or more recipients: %w", firstErr)
	}

	m.logger.Info("Lark message sent",
		zap.String("request_id", snap.ID),
		zap.String("kind", kind.String()),
		zap.Int("recipients", len(recipients)))

	return nil
}

func (m *Messenger) sendTo(ctx context.Context, email, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("email").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(email).
			MsgType("text").
			Content(content).
			Build()).
		Build()

	resp, err := m.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Messenger)(nil)
