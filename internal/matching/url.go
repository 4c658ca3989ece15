package matching

import (
	"regexp"
	"strconv"

	"github.com/getmockd/stubd/pkg/stub"
)

type urlKind int

const (
	urlEqual urlKind = iota + 1
	urlPathEqual
	urlRegex
	urlPathRegex
)

// URLMatcher is a compiled URL constraint.
type URLMatcher struct {
	kind     urlKind
	expected string
	re       *regexp.Regexp
}

// compileURL returns nil when the pattern places no constraint on the URL.
func compileURL(p *stub.RequestPattern) (*URLMatcher, error) {
	var set []string
	m := &URLMatcher{}
	if p.URL != "" {
		set = append(set, "url")
		m.kind, m.expected = urlEqual, p.URL
	}
	if p.URLPath != "" {
		set = append(set, "urlPath")
		m.kind, m.expected = urlPathEqual, p.URLPath
	}
	if p.URLPattern != "" {
		set = append(set, "urlPattern")
		m.kind, m.expected = urlRegex, p.URLPattern
	}
	if p.URLPathPattern != "" {
		set = append(set, "urlPathPattern")
		m.kind, m.expected = urlPathRegex, p.URLPathPattern
	}

	switch len(set) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, stub.Invalid("request."+set[1], nil, "contradicts request.%s; only one URL matcher may be set", set[0])
	}

	if m.kind == urlRegex || m.kind == urlPathRegex {
		re, err := compileAnchored(m.expected)
		if err != nil {
			return nil, stub.Invalid("request."+set[0], err, "malformed regex %q", m.expected)
		}
		m.re = re
	}
	return m, nil
}

// Match evaluates the constraint. rawURL is the path plus query string,
// path the path component alone. Comparisons are case-sensitive.
func (m *URLMatcher) Match(rawURL, path string) bool {
	switch m.kind {
	case urlEqual:
		return ExactMatch(rawURL, m.expected)
	case urlPathEqual:
		return ExactMatch(path, m.expected)
	case urlRegex:
		return m.re.MatchString(rawURL)
	case urlPathRegex:
		return m.re.MatchString(path)
	}
	return false
}

// pathOnly reports whether the matcher ignores the query string.
func (m *URLMatcher) pathOnly() bool {
	return m.kind == urlPathEqual || m.kind == urlPathRegex
}

func (m *URLMatcher) field() string {
	switch m.kind {
	case urlPathEqual:
		return "urlPath"
	case urlRegex:
		return "urlPattern"
	case urlPathRegex:
		return "urlPathPattern"
	default:
		return "url"
	}
}

func (m *URLMatcher) score() int {
	if m.re != nil {
		return ScoreURLPattern
	}
	return ScoreURLExact
}

// String describes the matcher for diagnostics.
func (m *URLMatcher) String() string {
	return m.field() + " " + strconv.Quote(m.expected)
}
