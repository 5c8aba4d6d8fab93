// Package mail delivers verification and password-reset messages.
//
// The rest of the system only needs "send(to, subject, html) → error", so
// that is the whole interface. Registration depends on the error: a failed
// send triggers the compensating delete of the just-created account, which
// is why Send is synchronous and why it carries its own timeout — mail
// delivery is the most common rollback trigger and must not be allowed to
// hang a registration request forever.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// Mailer sends a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// DefaultTimeout bounds one SMTP delivery, separately from the HTTP
// request's own timeout.
const DefaultTimeout = 10 * time.Second

// SMTPMailer delivers mail through a plain SMTP relay with AUTH PLAIN.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	timeout  time.Duration
}

// SMTPConfig configures an SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string        // e.g. `"KUVote" <vote@ku.th>`
	Timeout  time.Duration // zero means DefaultTimeout
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, fmt.Errorf("mail: SMTP host and port are required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mail: sender address is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		timeout:  timeout,
	}, nil
}

// Send delivers one HTML message.
//
// net/smtp has no context support, so the delivery runs in a goroutine and
// we select on ctx/timeout. On timeout the goroutine is abandoned — the
// net/smtp call will eventually fail or finish on its own; sending twice is
// acceptable for a verification mail, leaving the caller hanging is not.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- m.send(to, subject, html)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mail: sending to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mail: sending to %s: %w", to, ctx.Err())
	}
}

func (m *SMTPMailer) send(to, subject, html string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String()))
}

// LogMailer writes would-be messages to the log instead of sending them.
// Used when SMTP is not configured (local development) so the registration
// flow — including its rollback path — still behaves normally.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, html string) error {
	m.logger.Info("mail delivery skipped (SMTP not configured)",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}
