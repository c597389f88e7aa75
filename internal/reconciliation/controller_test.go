package reconciliation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"remind/internal/reminder"
)

type memoryStore struct {
	session *Session
	saves   int
	fail    error
}

func (m *memoryStore) SaveSession(_ context.Context, s *Session) error {
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.session = s.Clone()
	return nil
}

func (m *memoryStore) LoadSession(context.Context) (*Session, error) {
	if m.session == nil {
		return nil, ErrNoSession
	}
	return m.session.Clone(), nil
}

func (m *memoryStore) SetExcluded(_ context.Context, _ string, ids []int, excluded bool) error {
	if m.fail != nil {
		return m.fail
	}
	for _, id := range ids {
		if r := m.session.Record(id); r != nil {
			r.Excluded = excluded
		}
	}
	return nil
}

type SenderFunc func(ctx context.Context, req reminder.Request) (*reminder.Response, error)

func (f SenderFunc) Send(ctx context.Context, req reminder.Request) (*reminder.Response, error) {
	return f(ctx, req)
}

func importSample(t *testing.T, c *Controller) *ImportResult {
	t.Helper()
	res, err := c.Import(context.Background(), "sample.xlsx", sampleTable(), 30, today)
	require.NoError(t, err)
	return res
}

func TestControllerImportReplacesSession(t *testing.T) {
	store := &memoryStore{}
	c := NewController(store)

	first := importSample(t, c)
	_, _, err := c.ToggleExcluded(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, store.session.Records[0].Excluded)

	second := importSample(t, c)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, 2, store.saves)

	s, err := c.Session()
	require.NoError(t, err)
	for _, r := range s.Records {
		assert.False(t, r.Excluded, "re-import resets exclusions")
	}
	assert.Equal(t, "sample.xlsx", s.Source)
	assert.Equal(t, 30, s.ThresholdDays)
}

func TestControllerImportErrors(t *testing.T) {
	c := NewController(nil)
	_, err := c.Import(context.Background(), "empty.csv", Table{}, 30, today)

	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "empty.csv", importErr.Source)
	assert.ErrorIs(t, err, ErrEmptySheet)

	_, err = c.Session()
	assert.ErrorIs(t, err, ErrNoSession)

	store := &memoryStore{fail: errors.New("disk full")}
	_, err = NewController(store).Import(context.Background(), "a.csv", sampleTable(), 30, today)
	assert.ErrorContains(t, err, "disk full")
}

func TestControllerRestore(t *testing.T) {
	store := &memoryStore{}
	c := NewController(store)
	assert.ErrorIs(t, c.Restore(context.Background()), ErrNoSession)

	res := importSample(t, c)

	restored := NewController(store)
	require.NoError(t, restored.Restore(context.Background()))
	s, err := restored.Session()
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, s.ID)
	assert.Len(t, restored.Eligible(), 1)
}

func TestControllerSelection(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	c := NewController(store)
	importSample(t, c)

	excluded, found, err := c.ToggleExcluded(ctx, 42)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.False(t, excluded)

	n, err := c.SetAllOverdueExcluded(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, c.Eligible())

	_, err = c.SetAllOverdueExcluded(ctx, false)
	require.NoError(t, err)
	assert.Len(t, c.Eligible(), 1)

	store.fail = errors.New("locked")
	_, _, err = c.ToggleExcluded(ctx, 1)
	assert.Error(t, err)
	assert.Len(t, c.Eligible(), 1, "failed persist rolls back the toggle")

	_, err = c.SetAllOverdueExcluded(ctx, true)
	assert.Error(t, err)
	assert.Len(t, c.Eligible(), 1)
}

func TestControllerSend(t *testing.T) {
	c := NewController(nil)
	importSample(t, c)

	var got reminder.Request
	resp, err := c.Send(context.Background(), SenderFunc(func(_ context.Context, req reminder.Request) (*reminder.Response, error) {
		got = req
		return &reminder.Response{Success: true, Sent: len(req.Items)}, nil
	}), "Hi {{name}}")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Sent)
	if assert.Len(t, got.Items, 1) {
		assert.Equal(t, "ap@acme.test", got.Items[0].Email)
		assert.Equal(t, "Hi Acme", got.Items[0].Message)
	}
	assert.False(t, c.Sending())
}

func TestControllerSendFailureKeepsState(t *testing.T) {
	c := NewController(nil)
	importSample(t, c)
	_, _, err := c.ToggleExcluded(context.Background(), 2)
	require.NoError(t, err)
	before, _ := c.Session()

	sendErr := errors.New("connection refused")
	_, err = c.Send(context.Background(), SenderFunc(func(context.Context, reminder.Request) (*reminder.Response, error) {
		return nil, sendErr
	}), "")
	assert.ErrorIs(t, err, sendErr)

	after, _ := c.Session()
	assert.Equal(t, before, after)
	assert.False(t, c.Sending())
}

func TestControllerSendNothing(t *testing.T) {
	ctx := context.Background()
	never := SenderFunc(func(context.Context, reminder.Request) (*reminder.Response, error) {
		t.Fatal("sender must not be called")
		return nil, nil
	})

	c := NewController(nil)
	_, err := c.Send(ctx, never, "")
	assert.ErrorIs(t, err, ErrNoSession)

	importSample(t, c)
	_, err = c.SetAllOverdueExcluded(ctx, true)
	require.NoError(t, err)
	_, err = c.Send(ctx, never, "")
	assert.ErrorIs(t, err, ErrNothingToSend)
}

func TestControllerSendBusy(t *testing.T) {
	c := NewController(nil)
	importSample(t, c)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := c.Send(context.Background(), SenderFunc(func(context.Context, reminder.Request) (*reminder.Response, error) {
			close(started)
			<-release
			return &reminder.Response{Success: true, Sent: 1}, nil
		}), "")
		done <- err
	}()

	<-started
	assert.True(t, c.Sending())
	_, err := c.Send(context.Background(), SenderFunc(func(context.Context, reminder.Request) (*reminder.Response, error) {
		t.Fatal("second send must not reach the endpoint")
		return nil, nil
	}), "")
	assert.ErrorIs(t, err, ErrSendInProgress)

	close(release)
	assert.NoError(t, <-done)
	assert.False(t, c.Sending())
}
