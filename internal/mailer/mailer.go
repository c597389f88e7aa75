// Package mailer delivers reminder emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"remind/internal/logger"
)

// ErrInvalidMessage is returned for messages without a recipient.
var ErrInvalidMessage = errors.New("message has no recipient")

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the settings of an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay using PLAIN auth when a username
// is configured.
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
	log      zerolog.Logger
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		now:      time.Now,
		log:      logger.WithComponent("mailer"),
	}
}

// Send delivers msg. ctx is only checked before dialing; net/smtp has no
// cancellation.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	const op = "SMTPMailer.Send"

	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidMessage)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.sendMail(addr, auth, m.cfg.From, []string{msg.To}, m.compose(msg)); err != nil {
		return fmt.Errorf("%s: failed to send to %s: %w", op, msg.To, err)
	}

	m.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

// compose renders msg as an RFC 5322 message with CRLF line endings.
func (m *SMTPMailer) compose(msg Message) []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(sanitizeHeader(v))
		b.WriteString("\r\n")
	}
	header("From", m.cfg.From)
	header("To", msg.To)
	header("Subject", msg.Subject)
	header("Date", m.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogMailer only logs what would be sent.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a dry-run mailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{log: logger.WithComponent("mailer-dryrun")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("LogMailer.Send: %w", ErrInvalidMessage)
	}
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("(DRYRUN) Email")
	return nil
}
