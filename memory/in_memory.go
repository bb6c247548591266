package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/util"
)

// Entry is one stored piece of knowledge.
type Entry struct {
	ID       string
	Content  string
	Keywords []string
	Metadata map[string]any
}

// Result is a search hit. Score counts the entry keywords found in the query.
type Result struct {
	Entry
	Score int
}

// InMemoryStore is a process-local knowledge store. Search is a linear scan,
// which is fine for the few dozen entries an FAQ holds.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	seq     int
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Store adds an entry and returns its id. Content and at least one keyword
// are required.
func (m *InMemoryStore) Store(content string, keywords []string, metadata map[string]any) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", core.NewError("memory.store", core.ErrInvalidArgument, "content is required")
	}

	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		return "", core.NewError("memory.store", core.ErrInvalidArgument, "at least one keyword is required")
	}

	md := make(map[string]any, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("mem_%d", m.seq)
	m.seq++
	m.entries = append(m.entries, Entry{ID: id, Content: content, Keywords: kws, Metadata: md})

	return id, nil
}

// Search returns up to limit entries with at least one keyword in query,
// best score first. Ties keep insertion order.
func (m *InMemoryStore) Search(query string, limit int) []Result {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return nil
	}

	m.mu.RLock()
	var hits []Result
	for _, e := range m.entries {
		if score := score(query, e.Keywords); score > 0 {
			hits = append(hits, Result{Entry: e, Score: score})
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	return hits
}

// Delete removes the entry with id.
func (m *InMemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}

	return core.NewError("memory.delete", core.ErrInvalidArgument, "no entry "+id)
}

// Len returns the number of stored entries.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func score(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if util.ContainsPhrase(text, kw) {
			n++
		}
	}
	return n
}
