package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jzagalv/ssaa-designer/pkg/schema"
)

// Memory is an in-memory project store for development and tests.
// Documents are deep-copied on the way in and out, so callers never share
// state through the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, name string) (*schema.ProjectDocument, error) {
	m.mu.RLock()
	data, ok := m.docs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}

	var doc schema.ProjectDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode project %q: %w", name, err)
	}
	return &doc, nil
}

func (m *Memory) Save(ctx context.Context, name string, doc *schema.ProjectDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode project %q: %w", name, err)
	}

	m.mu.Lock()
	m.docs[name] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, name string) error {
	m.mu.Lock()
	delete(m.docs, name)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.docs))
	for name := range m.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
