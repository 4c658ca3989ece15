package engine

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/requestlog"
)

// DefaultJournalSize is the journal capacity used when none is configured.
const DefaultJournalSize = 1000

// Journal implements requestlog.Store with an in-memory circular buffer.
// When full, the oldest entry is evicted.
type Journal struct {
	entries    []*requestlog.Entry
	maxEntries int
	mu         sync.RWMutex
	nextID     int64
}

// NewJournal creates a Journal with the given capacity.
func NewJournal(maxEntries int) *Journal {
	if maxEntries <= 0 {
		maxEntries = DefaultJournalSize
	}
	return &Journal{
		entries:    make([]*requestlog.Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log records a journal entry.
func (j *Journal) Log(entry *requestlog.Entry) {
	if entry == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if entry.ID == "" {
		j.nextID++
		entry.ID = generateLogID(j.nextID)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// FIFO eviction
	if len(j.entries) >= j.maxEntries {
		j.entries = j.entries[1:]
	}
	j.entries = append(j.entries, entry)
}

// Get retrieves an entry by ID.
func (j *Journal) Get(id string) *requestlog.Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	for _, entry := range j.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns entries newest first, filtered and paginated.
func (j *Journal) List(filter *requestlog.Filter) []*requestlog.Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := make([]*requestlog.Entry, 0, len(j.entries))
	for i := len(j.entries) - 1; i >= 0; i-- {
		if filter.Accepts(j.entries[i]) {
			result = append(result, j.entries[i])
		}
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*requestlog.Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}

	return result
}

// Find returns the entries, newest first, whose request satisfies pred.
func (j *Journal) Find(pred *matching.Predicate) []*requestlog.Entry {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var result []*requestlog.Entry
	for i := len(j.entries) - 1; i >= 0; i-- {
		if pred.Matches(entryRequest(j.entries[i])) {
			result = append(result, j.entries[i])
		}
	}
	return result
}

// CountMatching returns the number of entries whose request satisfies pred.
func (j *Journal) CountMatching(pred *matching.Predicate) int {
	return len(j.Find(pred))
}

// Clear removes all entries.
func (j *Journal) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make([]*requestlog.Entry, 0, j.maxEntries)
}

// Count returns the number of entries.
func (j *Journal) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// entryRequest rebuilds the matcher's view of a journaled request.
func entryRequest(e *requestlog.Entry) *matching.Request {
	_, rawQuery, _ := strings.Cut(e.URL, "?")
	query, _ := url.ParseQuery(rawQuery)

	return &matching.Request{
		Method:  e.Method,
		URL:     e.URL,
		Path:    e.Path,
		Query:   query,
		Header:  http.Header(e.Headers),
		Cookies: e.Cookies,
		Body:    []byte(e.Body),
	}
}

func generateLogID(n int64) string {
	return "req-" + strconv.FormatInt(n, 36)
}

// Ensure Journal implements requestlog.Store.
var _ requestlog.Store = (*Journal)(nil)
