package stub

import (
	"encoding/json"
	"time"
)

// MethodAny matches every HTTP method.
const MethodAny = "ANY"

// Stub is a registered rule pairing a request pattern with a response.
// A Stub must not be modified after it has been registered.
type Stub struct {
	// ID uniquely identifies the stub. Generated on registration when empty.
	ID string `json:"id,omitempty"`

	// Name is an optional human-readable label shown in diagnostics.
	Name string `json:"name,omitempty"`

	// Request is the predicate an incoming request must satisfy.
	Request RequestPattern `json:"request"`

	// Response is rendered when the predicate is satisfied.
	Response ResponseDefinition `json:"response"`

	// CreatedAt is set by the registry when the stub is stored.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// DisplayName returns the name when set, otherwise the ID.
func (s *Stub) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// RequestPattern describes the requests a stub answers. All specified
// components must match; unspecified components are ignored.
type RequestPattern struct {
	// Method is the exact HTTP method, or ANY. Empty behaves like ANY.
	Method string `json:"method,omitempty"`

	// URL matches the raw path and query string exactly.
	URL string `json:"url,omitempty"`

	// URLPath matches the path exactly, ignoring the query string.
	URLPath string `json:"urlPath,omitempty"`

	// URLPattern is a regex anchored against the raw path and query string.
	URLPattern string `json:"urlPattern,omitempty"`

	// URLPathPattern is a regex anchored against the path only.
	URLPathPattern string `json:"urlPathPattern,omitempty"`

	Headers         map[string]ValuePattern `json:"headers,omitempty"`
	QueryParameters map[string]ValuePattern `json:"queryParameters,omitempty"`
	Cookies         map[string]ValuePattern `json:"cookies,omitempty"`

	// BasicAuth requires an Authorization: Basic header with these credentials.
	BasicAuth *BasicAuth `json:"basicAuthCredentials,omitempty"`

	// BodyPatterns are ANDed against the raw request body.
	BodyPatterns []BodyPattern `json:"bodyPatterns,omitempty"`

	// Expression is a boolean expr-lang expression evaluated against the
	// request (method, url, path, headers, query, cookies, body).
	Expression string `json:"expression,omitempty"`
}

// IsEmpty reports whether the pattern matches every request.
func (p *RequestPattern) IsEmpty() bool {
	return (p.Method == "" || p.Method == MethodAny) &&
		p.URL == "" && p.URLPath == "" && p.URLPattern == "" && p.URLPathPattern == "" &&
		len(p.Headers) == 0 && len(p.QueryParameters) == 0 && len(p.Cookies) == 0 &&
		p.BasicAuth == nil && len(p.BodyPatterns) == 0 && p.Expression == ""
}

// BasicAuth holds credentials for the basic-auth matcher.
type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValuePattern matches a single string value. Exactly one operator is set.
type ValuePattern struct {
	EqualTo         *string `json:"equalTo,omitempty"`
	CaseInsensitive bool    `json:"caseInsensitive,omitempty"`
	Contains        *string `json:"contains,omitempty"`
	Matches         *string `json:"matches,omitempty"`
	DoesNotMatch    *string `json:"doesNotMatch,omitempty"`
	Absent          bool    `json:"absent,omitempty"`
}

// BodyPattern matches the request body. It embeds the plain value operators
// and adds structured ones. Exactly one operator is set.
type BodyPattern struct {
	ValuePattern

	// EqualToJSON compares the body and the expected document semantically.
	EqualToJSON json.RawMessage `json:"equalToJson,omitempty"`

	// MatchesJSONPath requires the expression to select at least one value.
	MatchesJSONPath string `json:"matchesJsonPath,omitempty"`

	// MatchesJSONSchema requires the body to validate against the schema.
	MatchesJSONSchema json.RawMessage `json:"matchesJsonSchema,omitempty"`

	// MatchesXPath requires the path to select at least one element.
	MatchesXPath string `json:"matchesXPath,omitempty"`
}

// ResponseDefinition is the canned response of a stub.
type ResponseDefinition struct {
	// Status defaults to 200 when zero.
	Status int `json:"status,omitempty"`

	Headers map[string]string `json:"headers,omitempty"`

	// Body, Base64Body and JSONBody are mutually exclusive.
	Body       string          `json:"body,omitempty"`
	Base64Body string          `json:"base64Body,omitempty"`
	JSONBody   json.RawMessage `json:"jsonBody,omitempty"`

	// FixedDelayMilliseconds delays the response. Cancelled with the request.
	FixedDelayMilliseconds int `json:"fixedDelayMilliseconds,omitempty"`
}

// StatusCode returns the configured status, defaulting to 200.
func (r *ResponseDefinition) StatusCode() int {
	if r.Status == 0 {
		return 200
	}
	return r.Status
}

// Delay returns the configured fixed delay.
func (r *ResponseDefinition) Delay() time.Duration {
	return time.Duration(r.FixedDelayMilliseconds) * time.Millisecond
}
