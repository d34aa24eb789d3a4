// Package mail sends checkpoint notification e-mails over authenticated
// SMTP submission with STARTTLS.
package mail

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/NBISweden/timelogbot/internal/core"
)

// Mailer sends plain-text mails to a fixed recipient list. In dry-run mode
// nothing is sent; subject and body are logged for inspection instead.
type Mailer struct {
	cfg        core.EmailConfig
	recipients []string
	dryRun     bool
	log        zerolog.Logger
}

// NewMailer creates a Mailer from the e-mail configuration.
func NewMailer(cfg core.EmailConfig, recipients []string, dryRun bool, log zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, recipients: recipients, dryRun: dryRun, log: log}
}

// Send delivers one message to all configured recipients. Transport
// failures propagate to the caller; there is no retry.
func (m *Mailer) Send(subject, body string) error {
	if m.dryRun {
		m.log.Info().
			Str("subject", subject).
			Str("to", strings.Join(m.recipients, ", ")).
			Msg("dry-run active, not sending e-mail")
		m.log.Info().Msg(body)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", m.recipients...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail %q: %w", subject, err)
	}
	return nil
}
