package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one row of the settings table
type Setting struct {
	Namespace string `gorm:"type:varchar(100);primaryKey"`
	Name      string `gorm:"type:varchar(100);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName specifies the table name for Setting model
func (Setting) TableName() string {
	return "settings"
}

// GormStore keeps settings through GORM (Postgres)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a GORM backed store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get returns the value stored under namespace/key
func (s *GormStore) Get(ctx context.Context, namespace, key string) (string, error) {
	var setting Setting
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND name = ?", namespace, key).
		First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s/%s: %w", namespace, key, err)
	}
	return setting.Value, nil
}

// Set upserts the value under namespace/key
func (s *GormStore) Set(ctx context.Context, namespace, key, value string) error {
	setting := Setting{Namespace: namespace, Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %s/%s: %w", namespace, key, err)
	}
	return nil
}
