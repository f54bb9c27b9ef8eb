package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"book_mirror/internal/event"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EventRecord is one applied event, persisted for post-mortem diagnosis.
// This journal never feeds back into the book: after a restart the mirror
// resynchronizes from a fresh snapshot.
type EventRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Type       string `gorm:"index"`
	Symbol     string `gorm:"index"`
	Side       string
	Price      string // decimal string, exact
	Qty        string
	ReceivedAt time.Time
}

// Journal is an append-only SQLite log of applied events.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal database at path.
func NewJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal database: %w", err)
	}

	return &Journal{db: db}, nil
}

// Append writes one applied event.
func (j *Journal) Append(ev event.Event) error {
	rec := EventRecord{
		Type:       string(ev.EventType()),
		Symbol:     ev.EventSymbol(),
		ReceivedAt: time.Now().UTC(),
	}
	switch e := ev.(type) {
	case event.OrderAdded:
		rec.Side = e.Side.String()
		rec.Price = e.Price.String()
		rec.Qty = e.Delta.String()
	case event.OrderMatched:
		rec.Side = e.Side.String()
		rec.Price = e.Price.String()
		rec.Qty = e.Qty.String()
	}
	return j.db.Create(&rec).Error
}

// Recent returns the most recent records, newest first.
func (j *Journal) Recent(limit int) ([]EventRecord, error) {
	var recs []EventRecord
	err := j.db.Order("id desc").Limit(limit).Find(&recs).Error
	return recs, err
}

// CountBySymbol returns how many events were journaled for a symbol.
func (j *Journal) CountBySymbol(symbol string) (int64, error) {
	var n int64
	err := j.db.Model(&EventRecord{}).Where("symbol = ?", symbol).Count(&n).Error
	return n, err
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
