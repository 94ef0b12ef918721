package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/classhub/classhub-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	ToEmail  string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sendgrid delivers messages through the SendGrid v3 API.
type Sendgrid struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendgrid constructs a SendGrid-backed mailer.
func NewSendgrid(cfg config.MailConfig) *Sendgrid {
	return &Sendgrid{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Send delivers a single message.
func (m *Sendgrid) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(m.fromName, m.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Console logs messages instead of sending them. Used when mail is disabled.
type Console struct {
	logger *zap.Logger
}

// NewConsole constructs a console mailer.
func NewConsole(logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{logger: logger}
}

// Send logs the message at info level.
func (m *Console) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail (console)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}
