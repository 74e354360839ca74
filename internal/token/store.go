// Package token persists the Strava OAuth credentials and decides when
// they can no longer be used.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"climbd/internal/storage"
)

// Storage keys. The record lives under RecordKey; the three legacy keys
// are only read when no record exists and are removed on every write.
const (
	RecordKey             = "strava_tokens"
	LegacyAccessTokenKey  = "strava_access_token"
	LegacyRefreshTokenKey = "strava_refresh_token"
	LegacyExpiresAtKey    = "strava_expires_at"
)

var legacyKeys = []string{LegacyAccessTokenKey, LegacyRefreshTokenKey, LegacyExpiresAtKey}

// Record holds the Strava credentials. An empty field is absent.
type Record struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt is Unix epoch seconds as text, exactly as received.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Store reads and writes the token Record through a storage.Storage.
type Store struct {
	storage storage.Storage
}

// NewStore wraps s.
func NewStore(s storage.Storage) *Store {
	return &Store{storage: s}
}

// ExpiresAt returns the stored expiry timestamp, or "" when absent.
func (s *Store) ExpiresAt(ctx context.Context) (string, error) {
	rec, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	return rec.ExpiresAt, nil
}

// All returns the stored record. Any field may be empty.
func (s *Store) All(ctx context.Context) (Record, error) {
	raw, ok, err := s.storage.GetItem(ctx, RecordKey)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", RecordKey, err)
	}
	if ok {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return Record{}, fmt.Errorf("decode %s: %w", RecordKey, err)
		}
		return rec, nil
	}
	return s.legacy(ctx)
}

// SetAll replaces the record in a single storage write.
func (s *Store) SetAll(ctx context.Context, accessToken, refreshToken, expiresAt string) error {
	data, err := json.Marshal(Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", RecordKey, err)
	}
	if err := s.storage.SetItem(ctx, RecordKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", RecordKey, err)
	}
	// The record now shadows the legacy keys, so a failure here is harmless.
	_ = s.removeLegacy(ctx)
	return nil
}

// ClearAll removes the record and any legacy keys.
func (s *Store) ClearAll(ctx context.Context) error {
	var errs []error
	if err := s.storage.RemoveItem(ctx, RecordKey); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", RecordKey, err))
	}
	if err := s.removeLegacy(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Store) legacy(ctx context.Context) (Record, error) {
	values := make([]string, len(legacyKeys))
	for i, key := range legacyKeys {
		v, _, err := s.storage.GetItem(ctx, key)
		if err != nil {
			return Record{}, fmt.Errorf("read %s: %w", key, err)
		}
		values[i] = v
	}
	return Record{AccessToken: values[0], RefreshToken: values[1], ExpiresAt: values[2]}, nil
}

func (s *Store) removeLegacy(ctx context.Context) error {
	var errs []error
	for _, key := range legacyKeys {
		if err := s.storage.RemoveItem(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
