package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/handset/internal/store"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = store.ErrSettingNotFound

// Store persists setting values.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// Lister is implemented by stores that can enumerate their keys.
type Lister interface {
	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ListStore is a Store that can enumerate its keys. Every backend in this
// module implements it.
type ListStore interface {
	Store
	Lister
}

// GetJSON decodes the value under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode setting %q: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// Timestamp reads a time stored with SetTimestamp. A missing key yields the
// zero time and ok=false.
func Timestamp(ctx context.Context, s Store, key string) (t time.Time, ok bool, err error) {
	err = GetJSON(ctx, s, key, &t)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// SetTimestamp stores t under key in UTC.
func SetTimestamp(ctx context.Context, s Store, key string, t time.Time) error {
	return SetJSON(ctx, s, key, t.UTC())
}
