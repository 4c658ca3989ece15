package requestlog

import "time"

// Entry captures a request and the response the server sent for it.
type Entry struct {
	// ID is a unique identifier for the journal entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	Method string `json:"method"`

	// URL is the raw path and query string.
	URL string `json:"url"`

	Path string `json:"path"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Cookies are the request cookies by name.
	Cookies map[string][]string `json:"cookies,omitempty"`

	// Body is the request body content.
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address.
	RemoteAddr string `json:"remoteAddr"`

	// MatchedStubID is the ID of the stub that answered (empty if no match).
	MatchedStubID string `json:"matchedStubId,omitempty"`

	// ResponseStatus is the status code returned.
	ResponseStatus int `json:"responseStatus"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Error contains the error message for malformed or failed requests.
	Error string `json:"error,omitempty"`

	// NearMisses summarises the closest stubs for unmatched requests.
	NearMisses []NearMissInfo `json:"nearMisses,omitempty"`
}

// Matched reports whether a stub answered the request.
func (e *Entry) Matched() bool {
	return e.MatchedStubID != ""
}
