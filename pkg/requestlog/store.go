package requestlog

import "strings"

// Logger is the minimal interface for recording journal entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines the interface for journal storage.
// Store embeds Logger, so any Store implementation can be used where Logger is expected.
type Store interface {
	Logger

	// Get retrieves an entry by ID.
	Get(id string) *Entry

	// List returns entries, newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries.
	Count() int
}

// Filter defines criteria for filtering journal entries.
type Filter struct {
	// Method filters by exact HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// StubID filters by matched stub ID.
	StubID string

	// Unmatched keeps only requests no stub answered.
	Unmatched bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Accepts reports whether an entry passes the filter's field criteria.
// Limit and Offset are applied by the store.
func (f *Filter) Accepts(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Path != "" && !strings.HasPrefix(e.Path, f.Path) {
		return false
	}
	if f.StubID != "" && e.MatchedStubID != f.StubID {
		return false
	}
	if f.Unmatched && e.Matched() {
		return false
	}
	return true
}
