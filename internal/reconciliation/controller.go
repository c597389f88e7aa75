package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"remind/internal/logger"
	"remind/internal/reminder"
	"remind/pkg/models"
)

// SessionStore persists the current session between command invocations.
type SessionStore interface {
	// SaveSession replaces any stored session with s.
	SaveSession(ctx context.Context, s *Session) error

	// LoadSession returns the stored session or ErrNoSession.
	LoadSession(ctx context.Context) (*Session, error)

	// SetExcluded updates the excluded flag of the given records.
	SetExcluded(ctx context.Context, sessionID string, ids []int, excluded bool) error
}

// Sender submits a reminder batch to the notification endpoint.
type Sender interface {
	Send(ctx context.Context, req reminder.Request) (*reminder.Response, error)
}

// Controller owns the current session. Imports replace it wholesale; selection
// changes go through the controller so they are persisted.
type Controller struct {
	mu      sync.Mutex
	session *Session
	sending atomic.Bool

	reader *DataReader
	store  SessionStore
	now    func() time.Time
	log    zerolog.Logger
}

// NewController creates a controller. store may be nil for a purely in-memory
// session.
func NewController(store SessionStore) *Controller {
	return &Controller{
		reader: NewDataReader(),
		store:  store,
		now:    time.Now,
		log:    logger.WithComponent("reconciliation"),
	}
}

// Restore loads the stored session, if any.
func (c *Controller) Restore(ctx context.Context) error {
	const op = "Restore"

	if c.store == nil {
		return fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	s, err := c.store.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.log.Debug().
		Str("session_id", s.ID).
		Int("records", len(s.Records)).
		Msg("Session restored")
	return nil
}

// Import classifies table and replaces the current session with the result.
// The previous session, including its exclusions, is discarded.
func (c *Controller) Import(ctx context.Context, source string, table Table, thresholdDays int, today time.Time) (*ImportResult, error) {
	const op = "Import"

	records, mapping, skipped, err := c.reader.BuildRecords(table, thresholdDays, today)
	if err != nil {
		return nil, NewImportError(op, source, err)
	}

	s := &Session{
		ID:            uuid.NewString(),
		Source:        source,
		ThresholdDays: thresholdDays,
		AsOf:          today,
		ImportedAt:    c.now(),
		Records:       records,
	}

	if c.store != nil {
		if err := c.store.SaveSession(ctx, s); err != nil {
			return nil, NewImportError(op, source, fmt.Errorf("failed to save session: %w", err))
		}
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	counts := s.Counts()
	log := logger.WithSession("reconciliation", s.ID)
	log.Info().
		Str("source", source).
		Int("records", counts.Total).
		Int("overdue", counts.Overdue).
		Int("eligible", counts.Eligible).
		Int("no_date", counts.NoDate).
		Msg("Import completed")

	return &ImportResult{Session: s.Clone(), Mapping: mapping, SkippedRows: skipped}, nil
}

// Session returns a copy of the current session.
func (c *Controller) Session() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoSession
	}
	return c.session.Clone(), nil
}

// ToggleExcluded flips one record's exclusion. Unknown IDs are a no-op and
// report found=false.
func (c *Controller) ToggleExcluded(ctx context.Context, id int) (excluded bool, found bool, err error) {
	const op = "ToggleExcluded"

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return false, false, fmt.Errorf("%s: %w", op, ErrNoSession)
	}

	excluded, found = c.session.ToggleExcluded(id)
	if !found {
		c.log.Debug().Int("id", id).Msg("Toggle for unknown record ignored")
		return false, false, nil
	}

	if c.store != nil {
		if err := c.store.SetExcluded(ctx, c.session.ID, []int{id}, excluded); err != nil {
			// Keep memory and store consistent.
			c.session.ToggleExcluded(id)
			return false, true, fmt.Errorf("%s: failed to persist exclusion: %w", op, err)
		}
	}
	return excluded, true, nil
}

// SetAllOverdueExcluded sets the exclusion flag on every overdue record and
// returns how many records changed.
func (c *Controller) SetAllOverdueExcluded(ctx context.Context, value bool) (int, error) {
	const op = "SetAllOverdueExcluded"

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrNoSession)
	}

	before := c.session.Clone()
	ids := c.session.SetAllOverdueExcluded(value)
	if c.store != nil && len(ids) > 0 {
		if err := c.store.SetExcluded(ctx, c.session.ID, ids, value); err != nil {
			c.session = before
			return 0, fmt.Errorf("%s: failed to persist exclusions: %w", op, err)
		}
	}
	return len(ids), nil
}

// Eligible returns the current eligible set, or nil when nothing is imported.
func (c *Controller) Eligible() []models.InvoiceRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	return c.session.Eligible()
}

// Send posts the whole eligible set in one request. Only one send may be
// outstanding; a concurrent call fails with ErrSendInProgress. Failures are
// returned as-is and leave the session untouched.
func (c *Controller) Send(ctx context.Context, sender Sender, template string) (*reminder.Response, error) {
	const op = "Send"

	if !c.sending.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", op, ErrSendInProgress)
	}
	defer c.sending.Store(false)

	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", op, ErrNoSession)
	}
	sessionID := c.session.ID
	eligible := c.session.Eligible()
	c.mu.Unlock()

	if len(eligible) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNothingToSend)
	}

	log := logger.WithSession("reconciliation-send", sessionID)
	if len(eligible) > reminder.MaxItems {
		log.Warn().
			Int("eligible", len(eligible)).
			Int("max_items", reminder.MaxItems).
			Msg("Eligible set exceeds the endpoint cap, extra reminders will be dropped")
	}

	req := reminder.BuildRequest(eligible, template)
	log.Info().Int("items", len(req.Items)).Msg("Submitting reminders")

	resp, err := sender.Send(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Reminder send failed")
		return resp, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", op, errors.New("empty response from notification endpoint"))
	}

	log.Info().
		Bool("success", resp.Success).
		Int("sent", resp.Sent).
		Msg("Reminders submitted")
	return resp, nil
}

// Sending reports whether a send is outstanding.
func (c *Controller) Sending() bool {
	return c.sending.Load()
}
