package graph

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
)

// MemoryStore is a map-backed Store for dry runs and tests. Records are
// stored as property maps carrying their key under "key".
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[domain.Collection]bool
	records     map[domain.Collection]map[string]map[string]any
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		collections: make(map[domain.Collection]bool),
		records:     make(map[domain.Collection]map[string]map[string]any),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) HasCollection(_ context.Context, name domain.Collection) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryStore) CreateCollection(_ context.Context, name domain.Collection, edge bool) error {
	if _, err := lookup(name, edge); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[name] = edge
	return nil
}

func (m *MemoryStore) UpsertVertex(_ context.Context, v domain.Vertex) (string, error) {
	if _, err := lookup(v.Collection(), false); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(v.Collection(), v.Key(), v.Properties())
	return v.Key(), nil
}

func (m *MemoryStore) UpsertEdge(_ context.Context, e domain.Edge) (string, error) {
	spec, err := lookup(e.Kind, true)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[spec.From][e.From]; !ok {
		return "", fmt.Errorf("%w: %s %s -> %s", ErrEndpointMissing, e.Kind, e.From, e.To)
	}
	if _, ok := m.records[spec.To][e.To]; !ok {
		return "", fmt.Errorf("%w: %s %s -> %s", ErrEndpointMissing, e.Kind, e.From, e.To)
	}
	m.put(e.Kind, e.Key(), e.Properties())
	return e.Key(), nil
}

// put merges props into the stored record, like SET n += $props.
func (m *MemoryStore) put(c domain.Collection, key string, props map[string]any) {
	coll, ok := m.records[c]
	if !ok {
		coll = make(map[string]map[string]any)
		m.records[c] = coll
	}
	rec, ok := coll[key]
	if !ok {
		rec = map[string]any{"key": key}
		coll[key] = rec
	}
	maps.Copy(rec, props)
}

func (m *MemoryStore) Query(_ context.Context, name domain.Collection, f Filter) ([]map[string]any, error) {
	if _, err := domain.LookupCollection(string(name)); err != nil {
		return nil, err
	}
	fields, err := f.fields()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	coll := m.records[name]
	keys := make([]string, 0, len(coll))
	for k := range coll {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []map[string]any
	for _, k := range keys {
		if len(rows) == f.limit() {
			break
		}
		rec := coll[k]
		if matches(rec, f.Where, fields) {
			rows = append(rows, maps.Clone(rec))
		}
	}
	return rows, nil
}

// matches compares by formatted value so that CLI filters given as strings
// match numeric properties.
func matches(rec, where map[string]any, fields []string) bool {
	for _, k := range fields {
		v, ok := rec[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(where[k]) {
			return false
		}
	}
	return true
}

// Len returns the number of records stored in a collection.
func (m *MemoryStore) Len(name domain.Collection) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[name])
}
