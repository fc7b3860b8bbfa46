// Package notify delivers alert and digest emails over SMTP.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"spendwise/internal/log"
)

// SMTPConfig holds the SMTP endpoint and sender identity.
type SMTPConfig struct {
	Host        string
	Port        string
	User        string
	Pass        string
	SenderEmail string
	SenderName  string
}

// EmailSender sends plain-text emails via SMTP.
type EmailSender struct {
	cfg    SMTPConfig
	logger *log.Logger
}

func NewEmailSender(cfg SMTPConfig, logger *log.Logger) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		logger: logger.WithComponent(log.ComponentNotify),
	}
}

// Send delivers a single plain-text message. An empty SMTP user skips
// authentication, which is what local relays want.
func (s *EmailSender) Send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", s.cfg.SenderName, s.cfg.SenderEmail)
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Error("Failed to send email",
			log.FieldError, err,
			log.FieldEmail, to)
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("Email sent", log.FieldEmail, to, "subject", subject)
	return nil
}
