package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// InMemoryStore is a trivial in-process Store useful for tests. Data is
// copied on save and retrieval to avoid accidental external mutation of
// internal buffers.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewInMemoryStore returns an empty in-memory asset store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{assets: make(map[string][]byte)}
}

// Save stores (or overwrites) the asset bytes. The input slice is copied.
func (a *InMemoryStore) Save(name string, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.assets[name] = bytes.Clone(data)
}

// Delete removes the asset if present.
func (a *InMemoryStore) Delete(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.assets, name)
}

// Locate returns a memory:// location for the asset.
func (a *InMemoryStore) Locate(_ context.Context, name string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	loc := "memory://" + name
	if _, ok := a.assets[name]; !ok {
		return loc, fmt.Errorf("%s: %w", loc, ErrNotFound)
	}

	return loc, nil
}

// Open returns a reader over a copy of the asset bytes.
func (a *InMemoryStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, ok := a.assets[name]
	if !ok {
		return nil, fmt.Errorf("memory://%s: %w", name, ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}
