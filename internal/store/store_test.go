package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"remind/internal/logger"
	"remind/internal/reconciliation"
	"remind/pkg/models"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "remind.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func session(id string) *reconciliation.Session {
	date := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	age := 90
	return &reconciliation.Session{
		ID:            id,
		Source:        "invoices.xlsx",
		ThresholdDays: 30,
		AsOf:          time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC),
		ImportedAt:    time.Date(2024, time.June, 30, 9, 0, 0, 0, time.UTC),
		Records: []models.InvoiceRecord{
			{ID: 1, ClientName: "Acme", Email: "ap@acme.test", InvoiceNumber: "INV-1", InvoiceDate: &date, Amount: "100", AgeDays: &age, Overdue: true},
			{ID: 2, ClientName: "Delta", Email: "d@delta.test", InvoiceNumber: "INV-4", RawDate: "someday", Amount: "10"},
		},
	}
}

func TestLoadSessionEmpty(t *testing.T) {
	s := openTemp(t)
	_, err := s.LoadSession(context.Background())
	assert.True(t, errors.Is(err, reconciliation.ErrNoSession))
}

func TestSaveAndLoadSession(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	want := session("first")
	require.NoError(t, s.SaveSession(ctx, want))

	got, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", got.ID)
	assert.Equal(t, 30, got.ThresholdDays)
	assert.Equal(t, "invoices.xlsx", got.Source)
	require.Len(t, got.Records, 2)

	acme := got.Records[0]
	require.NotNil(t, acme.InvoiceDate)
	assert.Equal(t, "2024-04-01", acme.DisplayDate())
	assert.Equal(t, 90, *acme.AgeDays)
	assert.True(t, acme.Overdue)

	delta := got.Records[1]
	assert.Nil(t, delta.InvoiceDate)
	assert.Nil(t, delta.AgeDays)
	assert.Equal(t, "someday", delta.DisplayDate())
}

func TestSaveSessionReplaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	first := session("first")
	require.NoError(t, s.SaveSession(ctx, first))
	require.NoError(t, s.SetExcluded(ctx, "first", []int{1}, true))

	second := session("second")
	second.Records = second.Records[:1]
	require.NoError(t, s.SaveSession(ctx, second))

	got, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.ID)
	require.Len(t, got.Records, 1)
	assert.False(t, got.Records[0].Excluded)
}

func TestSetExcluded(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSession(ctx, session("first")))

	require.NoError(t, s.SetExcluded(ctx, "first", []int{1, 2}, true))
	got, err := s.LoadSession(ctx)
	require.NoError(t, err)
	assert.True(t, got.Records[0].Excluded)
	assert.True(t, got.Records[1].Excluded)

	require.NoError(t, s.SetExcluded(ctx, "first", []int{2}, false))
	got, err = s.LoadSession(ctx)
	require.NoError(t, err)
	assert.True(t, got.Records[0].Excluded)
	assert.False(t, got.Records[1].Excluded)

	assert.NoError(t, s.SetExcluded(ctx, "first", nil, true))
}

func TestControllerWithStore(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	c := reconciliation.NewController(s)
	table := reconciliation.Table{
		Headers: []string{"Client", "Email", "Invoice", "Date", "Amount"},
		Rows: []reconciliation.Row{
			{"Client": "Acme", "Email": "ap@acme.test", "Invoice": "INV-1", "Date": "2024-04-01", "Amount": "100"},
		},
	}
	today := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)
	_, err := c.Import(ctx, "test.csv", table, 30, today)
	require.NoError(t, err)

	excluded, found, err := c.ToggleExcluded(ctx, 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, excluded)

	restored := reconciliation.NewController(s)
	require.NoError(t, restored.Restore(ctx))
	sess, err := restored.Session()
	require.NoError(t, err)
	require.Len(t, sess.Records, 1)
	assert.True(t, sess.Records[0].Excluded)
	assert.Empty(t, restored.Eligible())
}
