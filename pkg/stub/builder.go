package stub

import (
	"encoding/json"
	"maps"
	"net/http"
)

// URLMatcher selects how a MappingBuilder constrains the request URL.
type URLMatcher struct {
	apply func(p *RequestPattern)
}

// URLEqualTo matches the raw path and query string exactly.
func URLEqualTo(url string) URLMatcher {
	return URLMatcher{apply: func(p *RequestPattern) { p.URL = url }}
}

// URLPathEqualTo matches the path exactly and ignores the query string.
func URLPathEqualTo(path string) URLMatcher {
	return URLMatcher{apply: func(p *RequestPattern) { p.URLPath = path }}
}

// URLMatching matches the raw path and query string against an anchored regex.
func URLMatching(pattern string) URLMatcher {
	return URLMatcher{apply: func(p *RequestPattern) { p.URLPattern = pattern }}
}

// URLPathMatching matches the path against an anchored regex.
func URLPathMatching(pattern string) URLMatcher {
	return URLMatcher{apply: func(p *RequestPattern) { p.URLPathPattern = pattern }}
}

// AnyURL places no constraint on the URL.
func AnyURL() URLMatcher {
	return URLMatcher{}
}

// EqualTo matches a value exactly.
func EqualTo(value string) ValuePattern {
	return ValuePattern{EqualTo: &value}
}

// EqualToIgnoreCase matches a value exactly, ignoring case.
func EqualToIgnoreCase(value string) ValuePattern {
	return ValuePattern{EqualTo: &value, CaseInsensitive: true}
}

// Containing matches values containing the substring.
func Containing(value string) ValuePattern {
	return ValuePattern{Contains: &value}
}

// Matching matches values against an anchored regex.
func Matching(pattern string) ValuePattern {
	return ValuePattern{Matches: &pattern}
}

// NotMatching matches values that do not satisfy the anchored regex.
func NotMatching(pattern string) ValuePattern {
	return ValuePattern{DoesNotMatch: &pattern}
}

// Absent matches when the value is not present at all.
func Absent() ValuePattern {
	return ValuePattern{Absent: true}
}

// MatchingJSONPath matches bodies where the JSONPath selects a value.
func MatchingJSONPath(expr string) BodyPattern {
	return BodyPattern{MatchesJSONPath: expr}
}

// MatchingXPath matches XML bodies where the path selects an element.
func MatchingXPath(path string) BodyPattern {
	return BodyPattern{MatchesXPath: path}
}

// EqualToJSON matches bodies that are semantically equal JSON documents.
func EqualToJSON(doc string) BodyPattern {
	return BodyPattern{EqualToJSON: json.RawMessage(doc)}
}

// MatchingJSONSchema matches bodies valid against the JSON schema.
func MatchingJSONSchema(schema string) BodyPattern {
	return BodyPattern{MatchesJSONSchema: json.RawMessage(schema)}
}

// MappingBuilder assembles a Stub. Every With method returns a new builder,
// so a partially configured builder can be reused as a template.
type MappingBuilder struct {
	id       string
	name     string
	request  RequestPattern
	response ResponseDefinition
}

// NewMapping starts a builder for the given method and URL matcher.
func NewMapping(method string, url URLMatcher) MappingBuilder {
	b := MappingBuilder{request: RequestPattern{Method: method}}
	if url.apply != nil {
		url.apply(&b.request)
	}
	return b
}

// Get starts a GET mapping.
func Get(url URLMatcher) MappingBuilder { return NewMapping(http.MethodGet, url) }

// Post starts a POST mapping.
func Post(url URLMatcher) MappingBuilder { return NewMapping(http.MethodPost, url) }

// Put starts a PUT mapping.
func Put(url URLMatcher) MappingBuilder { return NewMapping(http.MethodPut, url) }

// Patch starts a PATCH mapping.
func Patch(url URLMatcher) MappingBuilder { return NewMapping(http.MethodPatch, url) }

// Delete starts a DELETE mapping.
func Delete(url URLMatcher) MappingBuilder { return NewMapping(http.MethodDelete, url) }

// Head starts a HEAD mapping.
func Head(url URLMatcher) MappingBuilder { return NewMapping(http.MethodHead, url) }

// Options starts an OPTIONS mapping.
func Options(url URLMatcher) MappingBuilder { return NewMapping(http.MethodOptions, url) }

// Any starts a mapping that accepts every method.
func Any(url URLMatcher) MappingBuilder { return NewMapping(MethodAny, url) }

// WithID fixes the stub ID. Registering an existing ID replaces that stub.
func (b MappingBuilder) WithID(id string) MappingBuilder {
	b.id = id
	return b
}

// WithName sets a label used in diagnostics.
func (b MappingBuilder) WithName(name string) MappingBuilder {
	b.name = name
	return b
}

// WithHeader adds a header constraint.
func (b MappingBuilder) WithHeader(name string, p ValuePattern) MappingBuilder {
	b.request.Headers = with(b.request.Headers, name, p)
	return b
}

// WithQueryParam adds a query parameter constraint.
func (b MappingBuilder) WithQueryParam(name string, p ValuePattern) MappingBuilder {
	b.request.QueryParameters = with(b.request.QueryParameters, name, p)
	return b
}

// WithQueryParams adds several query parameter constraints.
func (b MappingBuilder) WithQueryParams(params map[string]ValuePattern) MappingBuilder {
	for name, p := range params {
		b = b.WithQueryParam(name, p)
	}
	return b
}

// WithCookie adds a cookie constraint.
func (b MappingBuilder) WithCookie(name string, p ValuePattern) MappingBuilder {
	b.request.Cookies = with(b.request.Cookies, name, p)
	return b
}

// WithBasicAuth requires basic-auth credentials.
func (b MappingBuilder) WithBasicAuth(username, password string) MappingBuilder {
	b.request.BasicAuth = &BasicAuth{Username: username, Password: password}
	return b
}

// WithRequestBody adds a body constraint. Multiple constraints are ANDed.
func (b MappingBuilder) WithRequestBody(p BodyPattern) MappingBuilder {
	patterns := make([]BodyPattern, len(b.request.BodyPatterns), len(b.request.BodyPatterns)+1)
	copy(patterns, b.request.BodyPatterns)
	b.request.BodyPatterns = append(patterns, p)
	return b
}

// WithRequestBodyValue adds a constraint on the raw body text.
func (b MappingBuilder) WithRequestBodyValue(p ValuePattern) MappingBuilder {
	return b.WithRequestBody(BodyPattern{ValuePattern: p})
}

// WithExpression adds an expr-lang predicate over the request.
func (b MappingBuilder) WithExpression(expression string) MappingBuilder {
	b.request.Expression = expression
	return b
}

// WillReturn sets the response.
func (b MappingBuilder) WillReturn(r ResponseBuilder) MappingBuilder {
	b.response = r.Build()
	return b
}

// Build returns the stub described by the builder.
func (b MappingBuilder) Build() *Stub {
	req := b.request
	req.Headers = maps.Clone(req.Headers)
	req.QueryParameters = maps.Clone(req.QueryParameters)
	req.Cookies = maps.Clone(req.Cookies)
	if b.request.BasicAuth != nil {
		auth := *b.request.BasicAuth
		req.BasicAuth = &auth
	}
	if len(b.request.BodyPatterns) > 0 {
		req.BodyPatterns = append([]BodyPattern(nil), b.request.BodyPatterns...)
	}
	resp := b.response
	resp.Headers = maps.Clone(resp.Headers)
	return &Stub{
		ID:       b.id,
		Name:     b.name,
		Request:  req,
		Response: resp,
	}
}

func with(m map[string]ValuePattern, name string, p ValuePattern) map[string]ValuePattern {
	out := make(map[string]ValuePattern, len(m)+1)
	maps.Copy(out, m)
	out[name] = p
	return out
}

// ResponseBuilder assembles a ResponseDefinition.
type ResponseBuilder struct {
	def ResponseDefinition
}

// AResponse starts a response builder with status 200.
func AResponse() ResponseBuilder {
	return ResponseBuilder{def: ResponseDefinition{Status: http.StatusOK}}
}

// OK is shorthand for AResponse().WithStatus(200).
func OK() ResponseBuilder { return AResponse() }

// WithStatus sets the status code.
func (r ResponseBuilder) WithStatus(status int) ResponseBuilder {
	r.def.Status = status
	return r
}

// WithHeader sets a response header.
func (r ResponseBuilder) WithHeader(name, value string) ResponseBuilder {
	headers := make(map[string]string, len(r.def.Headers)+1)
	maps.Copy(headers, r.def.Headers)
	headers[name] = value
	r.def.Headers = headers
	return r
}

// WithBody sets a literal body.
func (r ResponseBuilder) WithBody(body string) ResponseBuilder {
	r.def.Body = body
	r.def.Base64Body = ""
	r.def.JSONBody = nil
	return r
}

// WithBase64Body sets a binary body encoded as standard base64.
func (r ResponseBuilder) WithBase64Body(body string) ResponseBuilder {
	r.def.Base64Body = body
	r.def.Body = ""
	r.def.JSONBody = nil
	return r
}

// WithJSONBody sets a JSON body and defaults Content-Type to application/json.
func (r ResponseBuilder) WithJSONBody(doc string) ResponseBuilder {
	r.def.JSONBody = json.RawMessage(doc)
	r.def.Body = ""
	r.def.Base64Body = ""
	return r
}

// WithFixedDelay delays the response by the given number of milliseconds.
func (r ResponseBuilder) WithFixedDelay(ms int) ResponseBuilder {
	r.def.FixedDelayMilliseconds = ms
	return r
}

// Build returns the response definition.
func (r ResponseBuilder) Build() ResponseDefinition {
	def := r.def
	def.Headers = maps.Clone(def.Headers)
	return def
}
