package matching

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is the matcher's view of an inbound HTTP request.
type Request struct {
	Method string
	// URL is the raw path plus query string, e.g. "/api/message?id=1".
	URL string
	// Path is the escaped path without the query, as sent on the wire.
	Path string

	Query   url.Values
	Header  http.Header
	Cookies map[string][]string
	Body    []byte
}

// NewRequest builds a Request from an *http.Request whose body has already
// been read. It fails when the query string or a Cookie header cannot be
// parsed.
func NewRequest(r *http.Request, body []byte) (*Request, error) {
	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse query string: %w", err)
	}

	cookies := make(map[string][]string)
	for _, line := range r.Header.Values("Cookie") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parsed, err := http.ParseCookie(line)
		if err != nil {
			return nil, fmt.Errorf("parse cookie header: %w", err)
		}
		for _, c := range parsed {
			cookies[c.Name] = append(cookies[c.Name], c.Value)
		}
	}

	header := r.Header
	if header == nil {
		header = http.Header{}
	}

	return &Request{
		Method:  r.Method,
		URL:     r.URL.RequestURI(),
		Path:    r.URL.EscapedPath(),
		Query:   query,
		Header:  header,
		Cookies: cookies,
		Body:    body,
	}, nil
}
