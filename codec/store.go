package codec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/reoring/baiji/schema"
)

// ErrUnknownSchemaID is returned by stores for ids they do not hold.
var ErrUnknownSchemaID = errors.New("codec: unknown schema id")

// SchemaStore resolves schema ids carried in frame headers.
type SchemaStore interface {
	SchemaByID(ctx context.Context, id uint32) (schema.Schema, error)
}

// MemoryStore is an in-process SchemaStore. Ids are assigned from 1 in
// registration order; registering an identical schema again returns its
// existing id.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[uint32]schema.Schema
	byText map[string]uint32
	// subjects holds the id history of each subject, oldest first.
	subjects map[string][]uint32
	next     uint32
}

var _ SchemaStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[uint32]schema.Schema{}, byText: map[string]uint32{}, subjects: map[string][]uint32{}, next: 1}
}

// Register stores s and returns its id.
func (m *MemoryStore) Register(s schema.Schema) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register(s)
}

func (m *MemoryStore) register(s schema.Schema) uint32 {
	key := s.String()
	if id, ok := m.byText[key]; ok {
		return id
	}
	id := m.next
	m.next++
	m.byID[id] = s
	m.byText[key] = id
	return id
}

// RegisterSubject appends s to the version history of subject after checking
// it against that history under level. A schema already latest in the
// subject is accepted as is.
func (m *MemoryStore) RegisterSubject(subject string, s schema.Schema, level schema.Compatibility) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.subjects[subject]
	if n := len(ids); n > 0 && m.byID[ids[n-1]].String() == s.String() {
		return ids[n-1], nil
	}
	history := make([]schema.Schema, len(ids))
	for i, id := range ids {
		history[i] = m.byID[id]
	}
	if err := schema.CheckCompatibility(history, s, level); err != nil {
		return 0, err
	}
	id := m.register(s)
	m.subjects[subject] = append(ids, id)
	return id, nil
}

// Versions returns the ids registered under subject, oldest first.
func (m *MemoryStore) Versions(subject string) []uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint32(nil), m.subjects[subject]...)
}

// ID returns the id s was registered under.
func (m *MemoryStore) ID(s schema.Schema) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byText[s.String()]
	return id, ok
}

func (m *MemoryStore) SchemaByID(ctx context.Context, id uint32) (schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	s, ok := m.byID[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchemaID, id)
	}
	return s, nil
}
