package storage

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/stub"
)

// InMemoryStubStore is a thread-safe in-memory implementation of StubStore.
// Entries are kept in insertion order; the slice is replaced, never mutated
// in place, so readers can match against a snapshot without holding the lock.
type InMemoryStubStore struct {
	mu      sync.RWMutex
	entries []*Entry
	nextSeq uint64
	now     func() time.Time
}

// NewInMemoryStubStore creates an empty registry.
func NewInMemoryStubStore() *InMemoryStubStore {
	return &InMemoryStubStore{now: time.Now}
}

// Register implements StubStore.
func (s *InMemoryStubStore) Register(st *stub.Stub) (string, error) {
	// Compile outside the lock; only fully built entries become visible.
	entry, err := s.prepare(st)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.appendEntries(s.entries, []*Entry{entry})
	return entry.Stub.ID, nil
}

// RegisterAll implements StubStore.
func (s *InMemoryStubStore) RegisterAll(stubs []*stub.Stub) ([]string, error) {
	entries, err := s.prepareAll(stubs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.appendEntries(s.entries, entries)
	return entryIDs(entries), nil
}

// ReplaceAll implements StubStore.
func (s *InMemoryStubStore) ReplaceAll(stubs []*stub.Stub) ([]string, error) {
	entries, err := s.prepareAll(stubs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.appendEntries(nil, entries)
	return entryIDs(entries), nil
}

// prepare validates and compiles a stub into an entry without a sequence
// number. The caller's stub is not modified.
func (s *InMemoryStubStore) prepare(st *stub.Stub) (*Entry, error) {
	if st == nil {
		return nil, stub.Invalid("", nil, "nil stub")
	}

	pred, err := matching.Compile(&st.Request)
	if err != nil {
		return nil, err
	}
	if err := st.ValidateResponse(); err != nil {
		return nil, err
	}

	stored := *st
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = s.now()
	return &Entry{Stub: &stored, Predicate: pred}, nil
}

func (s *InMemoryStubStore) prepareAll(stubs []*stub.Stub) ([]*Entry, error) {
	entries := make([]*Entry, 0, len(stubs))
	for i, st := range stubs {
		e, err := s.prepare(st)
		if err != nil {
			return nil, fmt.Errorf("mapping %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// appendEntries returns a new slice holding base followed by added, in
// order, with sequence numbers assigned. An added entry drops any earlier
// entry with the same ID. Callers hold the write lock.
func (s *InMemoryStubStore) appendEntries(base, added []*Entry) []*Entry {
	replaced := make(map[string]bool, len(added))
	for _, e := range added {
		replaced[e.Stub.ID] = true
	}

	result := make([]*Entry, 0, len(base)+len(added))
	for _, e := range base {
		if !replaced[e.Stub.ID] {
			result = append(result, e)
		}
	}
	for i, e := range added {
		// Within one batch a later duplicate ID wins.
		if slices.ContainsFunc(added[i+1:], func(o *Entry) bool { return o.Stub.ID == e.Stub.ID }) {
			continue
		}
		s.nextSeq++
		e.Seq = s.nextSeq
		result = append(result, e)
	}
	return result
}

func entryIDs(entries []*Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Stub.ID
	}
	return ids
}

// snapshot returns the current entry slice. The returned slice is never
// modified by the store.
func (s *InMemoryStubStore) snapshot() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

// FindBestMatch implements StubStore. Entries are scanned newest first so the
// last registration wins.
func (s *InMemoryStubStore) FindBestMatch(r *matching.Request) *Entry {
	entries := s.snapshot()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Predicate.Matches(r) {
			return entries[i]
		}
	}
	return nil
}

// NearMisses implements StubStore.
func (s *InMemoryStubStore) NearMisses(r *matching.Request, topN int) []matching.NearMiss {
	entries := s.snapshot()
	candidates := make([]matching.Candidate, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		candidates = append(candidates, matching.Candidate{
			ID:        e.Stub.ID,
			Name:      e.Stub.Name,
			Predicate: e.Predicate,
		})
	}
	return matching.CollectNearMisses(candidates, r, topN)
}

// Get implements StubStore.
func (s *InMemoryStubStore) Get(id string) *stub.Stub {
	for _, e := range s.snapshot() {
		if e.Stub.ID == id {
			return e.Stub
		}
	}
	return nil
}

// Remove implements StubStore.
func (s *InMemoryStubStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.entries, func(e *Entry) bool { return e.Stub.ID == id })
	if idx < 0 {
		return false
	}
	s.entries = slices.Concat(s.entries[:idx], s.entries[idx+1:])
	return true
}

// List implements StubStore.
func (s *InMemoryStubStore) List() []*stub.Stub {
	entries := s.snapshot()
	result := make([]*stub.Stub, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		result = append(result, entries[i].Stub)
	}
	return result
}

// Count implements StubStore.
func (s *InMemoryStubStore) Count() int {
	return len(s.snapshot())
}

// Reset implements StubStore.
func (s *InMemoryStubStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Ensure InMemoryStubStore implements StubStore.
var _ StubStore = (*InMemoryStubStore)(nil)
