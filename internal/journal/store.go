// Package journal keeps a local SQLite record of every order submission that
// reached the broker.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"schwab/internal/trading"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

// Open creates (or reuses) the SQLite file at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("journal path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return OpenDB(db)
}

func OpenDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&SubmissionModel{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &Store{db: db}, nil
}

// Record implements trading.Recorder.
func (s *Store) Record(ctx context.Context, sub trading.Submission) error {
	doc, err := json.Marshal(sub.Document)
	if err != nil {
		return fmt.Errorf("marshal order document: %w", err)
	}
	outcome := OutcomeAccepted
	if sub.Error != "" || sub.Status >= 300 {
		outcome = OutcomeRejected
	}
	row := SubmissionModel{
		ID:             uuid.NewString(),
		AccountID:      sub.AccountID,
		Paper:          sub.Paper,
		AssetType:      string(sub.AssetType),
		Kind:           sub.Kind,
		Outcome:        outcome,
		Status:         sub.Status,
		OrderID:        sub.OrderID,
		Error:          sub.Error,
		IdempotencyKey: sub.IdempotencyKey,
		Document:       doc,
		SubmittedAt:    sub.SubmittedAt.UTC(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Recent lists the newest submissions first.
func (s *Store) Recent(ctx context.Context, limit int) ([]SubmissionModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []SubmissionModel
	if err := s.db.WithContext(ctx).
		Order("submitted_at DESC, created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ByOrderID returns nil when no accepted submission carries orderID.
func (s *Store) ByOrderID(ctx context.Context, orderID string) (*SubmissionModel, error) {
	var row SubmissionModel
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
