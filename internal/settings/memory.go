package settings

import (
	"context"
	"slices"
	"strings"

	"github.com/alphadose/haxmap"
)

// MemoryStore keeps settings in a concurrent map. Values are copied on the
// way in and out so callers cannot mutate stored bytes.
type MemoryStore struct {
	values *haxmap.Map[string, []byte]
}

var _ ListStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: haxmap.New[string, []byte]()}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.values.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

// Set implements Store.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.values.Set(key, slices.Clone(value))
	return nil
}

// Keys lists the stored keys starting with prefix, sorted.
func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, m.values.Len())
	m.values.ForEach(func(k string, _ []byte) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return true
	})
	slices.Sort(keys)
	return keys, nil
}
