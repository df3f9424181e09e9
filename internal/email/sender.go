// Package email delivers follow-up emails through SendGrid or SMTP.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"propensia_dashboard/platform/config"
)

// ErrDisabled is returned by DisabledSender.
var ErrDisabled = errors.New("email sending is not configured")

// Message is one outgoing follow-up email. Body is plain text.
type Message struct {
	To          string
	ContactName string
	Subject     string
	Body        string
}

type Sender interface {
	SendFollowUpEmail(ctx context.Context, msg Message) error
}

// DisabledSender rejects every message. It is used when no provider is configured.
type DisabledSender struct{}

func (DisabledSender) SendFollowUpEmail(ctx context.Context, msg Message) error {
	return ErrDisabled
}

// Enabled reports whether s can deliver mail.
func Enabled(s Sender) bool {
	_, disabled := s.(DisabledSender)
	return s != nil && !disabled
}

func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return DisabledSender{}, nil
	}

	switch cfg.GetEmailProvider() {
	case "smtp":
		return NewSMTPSender(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		), nil
	case "sendgrid", "":
		return NewSendGridSender(cfg.GetSendGridAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}

func validateMessage(msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("subject is required")
	}
	return nil
}
