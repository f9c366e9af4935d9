package email

import (
	"context"

	"leadflow_backend/platform/config"
)

// Message is one customer-facing workflow email.
type Message struct {
	Subject  string
	Heading  string
	Greeting string
	Body     string
	CTALabel string
	CTAURL   string
}

type Sender interface {
	SendWorkflowEmail(ctx context.Context, toEmail string, msg Message) error
}

type NoopSender struct{}

func (NoopSender) SendWorkflowEmail(ctx context.Context, toEmail string, msg Message) error {
	return nil
}

// NewSender returns an SMTP sender, or a NoopSender when email is disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
