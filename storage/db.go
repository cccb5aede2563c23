package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceEntry is one stored value in the device_entries table.
type DeviceEntry struct {
	DeviceID  string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;size:64;column:entry_key"`
	Value     []byte
	UpdatedAt time.Time
}

type dbStore struct {
	db *gorm.DB
}

// NewDB stores device entries in the application database.
func NewDB(db *gorm.DB) (Local, error) {
	if err := db.AutoMigrate(&DeviceEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate device_entries: %w", err)
	}
	return &dbStore{db: db}, nil
}

func (s *dbStore) Get(ctx context.Context, device, key string) ([]byte, error) {
	var entry DeviceEntry
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND entry_key = ?", device, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", device, key, err)
	}
	return entry.Value, nil
}

func (s *dbStore) Set(ctx context.Context, device, key string, value []byte) error {
	entry := DeviceEntry{DeviceID: device, Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", device, key, err)
	}
	return nil
}

func (s *dbStore) Delete(ctx context.Context, device, key string) error {
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND entry_key = ?", device, key).
		Delete(&DeviceEntry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", device, key, err)
	}
	return nil
}
