package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"remind/internal/logger"
	"remind/internal/mailer"
	"remind/internal/reminder"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[msg.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func post(t *testing.T, h http.Handler, body interface{}, token string) (int, reminder.Response) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/send", &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp reminder.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealthz(t *testing.T) {
	r := New(Options{}, &fakeMailer{}, nil).Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSend(t *testing.T) {
	days := 45
	m := &fakeMailer{}
	r := New(Options{Template: "Hi {{name}}, {{invoice}} is {{days}} days old", Subject: "Invoice {{invoice}}"}, m, nil).Router()

	code, resp := post(t, r, reminder.Request{Items: []reminder.Item{
		{Email: "ap@acme.test", Name: "Acme", Invoice: "INV-1", Amount: "100", Days: &days},
		{Email: "not-an-email", Name: "Broken", Invoice: "INV-2"},
		{Email: "b@beta.test", Name: "Beta", Invoice: "INV-3", Message: "custom text"},
	}}, "")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Sent)
	assert.Empty(t, resp.Error)

	require.Len(t, m.sent, 2)
	assert.Equal(t, mailer.Message{To: "ap@acme.test", Subject: "Invoice INV-1", Body: "Hi Acme, INV-1 is 45 days old"}, m.sent[0])
	assert.Equal(t, "custom text", m.sent[1].Body)
	assert.Equal(t, "Invoice INV-3", m.sent[1].Subject)
}

func TestSendPartialFailure(t *testing.T) {
	m := &fakeMailer{fail: map[string]error{
		"a@a.test": errors.New("550 mailbox unavailable"),
		"c@c.test": errors.New("451 try later"),
	}}
	r := New(Options{}, m, nil).Router()

	code, resp := post(t, r, reminder.Request{Items: []reminder.Item{
		{Email: "a@a.test"}, {Email: "b@b.test"}, {Email: "c@c.test"},
	}}, "")

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, resp.Success)
	assert.Equal(t, 1, resp.Sent)
	assert.Equal(t, "550 mailbox unavailable", resp.Error)
}

func TestSendTruncatesToMaxItems(t *testing.T) {
	m := &fakeMailer{}
	r := New(Options{}, m, nil).Router()

	items := make([]reminder.Item, 150)
	for i := range items {
		items[i] = reminder.Item{Email: fmt.Sprintf("c%d@client.test", i), Invoice: fmt.Sprint(i)}
	}
	_, resp := post(t, r, reminder.Request{Items: items}, "")

	assert.True(t, resp.Success)
	assert.Equal(t, reminder.MaxItems, resp.Sent)
	assert.Len(t, m.sent, reminder.MaxItems)
}

func TestSendBadRequest(t *testing.T) {
	r := New(Options{}, &fakeMailer{}, nil).Router()
	code, resp := post(t, r, `{"items": [`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid request")
}

func TestSendRequiresToken(t *testing.T) {
	m := &fakeMailer{}
	r := New(Options{Token: "secret"}, m, nil).Router()
	req := reminder.Request{Items: []reminder.Item{{Email: "a@a.test"}}}

	code, resp := post(t, r, req, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "authentication failure", resp.Error)

	code, resp = post(t, r, req, "secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, resp.Sent)
}

func TestSendDedupe(t *testing.T) {
	mr := miniredis.RunT(t)

	d, err := NewRedisDeduper(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer d.Close()

	m := &fakeMailer{}
	r := New(Options{}, m, d).Router()
	req := reminder.Request{Items: []reminder.Item{{Email: "a@a.test", Invoice: "INV-1"}}}

	_, resp := post(t, r, req, "")
	assert.Equal(t, 1, resp.Sent)

	_, resp = post(t, r, req, "")
	assert.True(t, resp.Success)
	assert.Equal(t, 0, resp.Sent)
	assert.Len(t, m.sent, 1)

	mr.FastForward(DedupeTTL + time.Minute)
	_, resp = post(t, r, req, "")
	assert.Equal(t, 1, resp.Sent)
	assert.Len(t, m.sent, 2)
}

func TestNewRedisDeduperUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisDeduper(context.Background(), addr)
	assert.Error(t, err)
}

func TestMessageHash(t *testing.T) {
	a := messageHash("a@a.test", "s", "b")
	assert.Len(t, a, 32)
	assert.Equal(t, a, messageHash("a@a.test", "s", "b"))
	assert.NotEqual(t, a, messageHash("a@a.test", "s", "c"))
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(Options{}, &fakeMailer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
