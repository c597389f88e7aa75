// Package store persists the reconciliation session in SQLite so separate CLI
// invocations share one import.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"remind/internal/logger"
	"remind/internal/reconciliation"
	"remind/pkg/models"
)

type sessionRow struct {
	ID            string `gorm:"primaryKey"`
	Source        string
	ThresholdDays int
	AsOf          time.Time
	ImportedAt    time.Time `gorm:"index"`
}

func (sessionRow) TableName() string { return "sessions" }

type recordRow struct {
	SessionID     string `gorm:"primaryKey"`
	RecordID      int    `gorm:"primaryKey;autoIncrement:false"`
	InvoiceNumber string
	ClientName    string
	Email         string
	InvoiceDate   *time.Time
	RawDate       string
	Amount        string
	PaidFlag      string
	AgeDays       *int
	Overdue       bool
	Excluded      bool
}

func (recordRow) TableName() string { return "records" }

// Store is a gorm-backed reconciliation.SessionStore.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	const op = "Open"

	log := logger.WithComponent("store")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: zerologger{Logger: log},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open database %s: %w", op, path, err)
	}

	if err := db.AutoMigrate(&sessionRow{}, &recordRow{}); err != nil {
		return nil, fmt.Errorf("%s: failed to migrate database: %w", op, err)
	}

	log.Debug().Str("path", path).Msg("Database connected")
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSession replaces everything stored with sess.
func (s *Store) SaveSession(ctx context.Context, sess *reconciliation.Session) error {
	const op = "SaveSession"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&recordRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&sessionRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}

		row := sessionRow{
			ID:            sess.ID,
			Source:        sess.Source,
			ThresholdDays: sess.ThresholdDays,
			AsOf:          sess.AsOf,
			ImportedAt:    sess.ImportedAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if len(sess.Records) == 0 {
			return nil
		}
		rows := make([]recordRow, len(sess.Records))
		for i, r := range sess.Records {
			rows[i] = toRow(sess.ID, r)
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("failed to save records: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().
		Str("session_id", sess.ID).
		Int("records", len(sess.Records)).
		Msg("Session saved")
	return nil
}

// LoadSession returns the most recent session, or reconciliation.ErrNoSession.
func (s *Store) LoadSession(ctx context.Context) (*reconciliation.Session, error) {
	const op = "LoadSession"

	db := s.db.WithContext(ctx)

	var row sessionRow
	if err := db.Order("imported_at desc").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconciliation.ErrNoSession
		}
		return nil, fmt.Errorf("%s: failed to load session: %w", op, err)
	}

	var rows []recordRow
	if err := db.Where("session_id = ?", row.ID).Order("record_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s: failed to load records: %w", op, err)
	}

	sess := &reconciliation.Session{
		ID:            row.ID,
		Source:        row.Source,
		ThresholdDays: row.ThresholdDays,
		AsOf:          row.AsOf,
		ImportedAt:    row.ImportedAt,
		Records:       make([]models.InvoiceRecord, len(rows)),
	}
	for i, r := range rows {
		sess.Records[i] = fromRow(r)
	}
	return sess, nil
}

// SetExcluded updates the excluded flag of the given records.
func (s *Store) SetExcluded(ctx context.Context, sessionID string, ids []int, excluded bool) error {
	const op = "SetExcluded"

	if len(ids) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&recordRow{}).
		Where("session_id = ? AND record_id IN ?", sessionID, ids).
		Update("excluded", excluded)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}

	s.log.Debug().
		Str("session_id", sessionID).
		Int64("rows", res.RowsAffected).
		Bool("excluded", excluded).
		Msg("Exclusions updated")
	return nil
}

func toRow(sessionID string, r models.InvoiceRecord) recordRow {
	return recordRow{
		SessionID:     sessionID,
		RecordID:      r.ID,
		InvoiceNumber: r.InvoiceNumber,
		ClientName:    r.ClientName,
		Email:         r.Email,
		InvoiceDate:   r.InvoiceDate,
		RawDate:       r.RawDate,
		Amount:        r.Amount,
		PaidFlag:      r.PaidFlag,
		AgeDays:       r.AgeDays,
		Overdue:       r.Overdue,
		Excluded:      r.Excluded,
	}
}

func fromRow(r recordRow) models.InvoiceRecord {
	rec := models.InvoiceRecord{
		ID:            r.RecordID,
		InvoiceNumber: r.InvoiceNumber,
		ClientName:    r.ClientName,
		Email:         r.Email,
		RawDate:       r.RawDate,
		Amount:        r.Amount,
		PaidFlag:      r.PaidFlag,
		AgeDays:       r.AgeDays,
		Overdue:       r.Overdue,
		Excluded:      r.Excluded,
	}
	if r.InvoiceDate != nil {
		d := r.InvoiceDate.UTC()
		rec.InvoiceDate = &d
	}
	return rec
}
