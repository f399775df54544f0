package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MuhamadAgungGumelar/vision-ocr-relay/internal/shared/database"
)

// Namespace and key holding the Vision API key
const (
	Namespace = "ocr_prefs"
	KeyAPIKey = "cloud_vision_api_key"
)

var (
	// ErrNotFound is returned when no value is stored under namespace/key
	ErrNotFound = errors.New("setting not found")
	// ErrEmptyValue is returned when trying to store a blank API key
	ErrEmptyValue = errors.New("value cannot be empty")
)

// Store is a string key-value store grouped by namespace
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
}

// NewStore picks the store implementation for db
func NewStore(db *database.DB) Store {
	if db.GORM != nil {
		return NewGormStore(db.GORM)
	}
	return NewSQLStore(db.DB)
}

// APIKeyProvider reads and writes the Vision API key
type APIKeyProvider struct {
	store Store
}

// NewAPIKeyProvider creates a provider backed by store
func NewAPIKeyProvider(store Store) *APIKeyProvider {
	return &APIKeyProvider{store: store}
}

// APIKey returns the stored key, or ErrNotFound
func (p *APIKeyProvider) APIKey(ctx context.Context) (string, error) {
	return p.store.Get(ctx, Namespace, KeyAPIKey)
}

// SetAPIKey trims and stores key; blank keys are rejected
func (p *APIKeyProvider) SetAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("api key: %w", ErrEmptyValue)
	}
	return p.store.Set(ctx, Namespace, KeyAPIKey, key)
}

// HasAPIKey reports whether a non-blank key is stored
func (p *APIKeyProvider) HasAPIKey(ctx context.Context) (bool, error) {
	key, err := p.APIKey(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(key) != "", nil
}
