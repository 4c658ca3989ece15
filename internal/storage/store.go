package storage

import (
	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/stub"
)

// Entry is a registered stub and its compiled predicate. Entries are
// immutable once stored.
type Entry struct {
	Stub      *stub.Stub
	Predicate *matching.Predicate
	// Seq is the insertion sequence number; higher means more recent.
	Seq uint64
}

// StubStore defines the interface of a stub registry.
type StubStore interface {
	// Register validates, compiles and stores a stub, returning its ID.
	// A stub whose ID is already registered replaces the old one and
	// becomes the most recent registration.
	Register(s *stub.Stub) (string, error)

	// RegisterAll registers stubs in order as one atomic step: either every
	// stub is stored or, on the first invalid stub, none is.
	RegisterAll(stubs []*stub.Stub) ([]string, error)

	// ReplaceAll swaps the whole registry for stubs in one step. Concurrent
	// lookups see either the old or the new set. On error the registry is
	// left unchanged.
	ReplaceAll(stubs []*stub.Stub) ([]string, error)

	// FindBestMatch returns the most recently registered entry whose
	// predicate the request satisfies, or nil.
	FindBestMatch(r *matching.Request) *Entry

	// NearMisses returns the closest non-matching stubs for diagnostics.
	NearMisses(r *matching.Request, topN int) []matching.NearMiss

	// Get retrieves a stub by ID. Returns nil if not found.
	Get(id string) *stub.Stub

	// Remove deletes a stub by ID. Returns true if deleted.
	Remove(id string) bool

	// List returns all stubs, most recent first.
	List() []*stub.Stub

	// Count returns the number of registered stubs.
	Count() int

	// Reset removes all stubs.
	Reset()
}
