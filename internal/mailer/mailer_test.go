package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"remind/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  string
}

func newTestMailer(cfg SMTPConfig, fail error) (*SMTPMailer, *sentMail) {
	got := &sentMail{}
	m := NewSMTPMailer(cfg)
	m.now = func() time.Time { return time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC) }
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		got.addr, got.auth, got.from, got.to, got.msg = addr, a, from, to, string(msg)
		return fail
	}
	return m, got
}

func TestSMTPMailerSend(t *testing.T) {
	m, got := newTestMailer(SMTPConfig{Host: "smtp.test", Port: 587, Username: "user", Password: "pw", From: "billing@shop.test"}, nil)

	err := m.Send(context.Background(), Message{To: "ap@acme.test", Subject: "Reminder\r\nBcc: x@evil.test", Body: "Hello\nPlease pay."})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "billing@shop.test", got.from)
	assert.Equal(t, []string{"ap@acme.test"}, got.to)
	assert.Contains(t, got.msg, "Subject: Reminder  Bcc: x@evil.test\r\n")
	assert.Contains(t, got.msg, "To: ap@acme.test\r\n")
	assert.True(t, strings.HasSuffix(got.msg, "\r\n\r\nHello\r\nPlease pay."))
}

func TestSMTPMailerNoAuth(t *testing.T) {
	m, got := newTestMailer(SMTPConfig{Host: "localhost", Port: 25, From: "a@b.test"}, nil)
	require.NoError(t, m.Send(context.Background(), Message{To: "c@d.test"}))
	assert.Nil(t, got.auth)
}

func TestSMTPMailerErrors(t *testing.T) {
	m, _ := newTestMailer(SMTPConfig{Host: "localhost", Port: 25}, errors.New("550 mailbox unavailable"))

	err := m.Send(context.Background(), Message{To: "c@d.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "550 mailbox unavailable")

	err = m.Send(context.Background(), Message{To: " "})
	assert.True(t, errors.Is(err, ErrInvalidMessage))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = m.Send(ctx, Message{To: "c@d.test"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLogMailer(t *testing.T) {
	m := NewLogMailer()
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.test", Subject: "s", Body: "b"}))
	assert.True(t, errors.Is(m.Send(context.Background(), Message{}), ErrInvalidMessage))
}
