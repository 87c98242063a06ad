package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type HistoryEntry struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	RecordID     string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	Kind         string    `gorm:"type:varchar(20);not null;index"`
	CredentialID string    `gorm:"type:varchar(255);not null;index"`
	Payload      string    `gorm:"type:text;not null"`
	Timestamp    time.Time `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (HistoryEntry) TableName() string {
	return "history_entries"
}

type HistoryCounter struct {
	Kind  string `gorm:"primaryKey;type:varchar(20)"`
	Value int64  `gorm:"not null;default:0"`
}

func (HistoryCounter) TableName() string {
	return "history_counters"
}

// GormStore persists histories in SQLite or PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// OpenGormStore connects using dsn and migrates the history tables. DSNs
// starting with postgres:// or postgresql://, or containing host=, select
// PostgreSQL; anything else is treated as a SQLite path.
func OpenGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return NewGormStore(db)
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&HistoryEntry{}, &HistoryCounter{}); err != nil {
		return nil, fmt.Errorf("migrate history tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

func (s *GormStore) Append(ctx context.Context, entry Entry) error {
	row := HistoryEntry{
		RecordID:     entry.ID,
		Kind:         string(entry.Kind),
		CredentialID: entry.CredentialID,
		Payload:      string(entry.Payload),
		Timestamp:    entry.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) Load(ctx context.Context, kind Kind) ([]Entry, error) {
	var rows []HistoryEntry
	result := s.db.WithContext(ctx).Where("kind = ?", string(kind)).Order("id ASC").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			ID:           row.RecordID,
			Kind:         Kind(row.Kind),
			CredentialID: row.CredentialID,
			Payload:      []byte(row.Payload),
			Timestamp:    row.Timestamp.UTC(),
		})
	}
	return entries, nil
}

func (s *GormStore) Clear(ctx context.Context, kind Kind) error {
	return s.db.WithContext(ctx).Where("kind = ?", string(kind)).Delete(&HistoryEntry{}).Error
}

func (s *GormStore) Increment(ctx context.Context, kind Kind) (int64, error) {
	var counter HistoryCounter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.FirstOrCreate(&counter, HistoryCounter{Kind: string(kind)}).Error; err != nil {
			return err
		}
		err := tx.Model(&HistoryCounter{}).
			Where("kind = ?", string(kind)).
			UpdateColumn("value", gorm.Expr("value + ?", 1)).Error
		if err != nil {
			return err
		}
		return tx.First(&counter, "kind = ?", string(kind)).Error
	})
	if err != nil {
		return 0, err
	}
	return counter.Value, nil
}

func (s *GormStore) Counter(ctx context.Context, kind Kind) (int64, error) {
	var counters []HistoryCounter
	if err := s.db.WithContext(ctx).Where("kind = ?", string(kind)).Limit(1).Find(&counters).Error; err != nil {
		return 0, err
	}
	if len(counters) == 0 {
		return 0, nil
	}
	return counters[0].Value, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
