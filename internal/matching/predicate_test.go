package matching

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/stub"
)

func TestPredicate_URL(t *testing.T) {
	tests := []struct {
		name   string
		url    stub.URLMatcher
		target string
		want   bool
	}{
		{"urlEqualTo with query", stub.URLEqualTo("/api/message?id=1"), "/api/message?id=1", true},
		{"urlEqualTo requires the query", stub.URLEqualTo("/api/message?id=1"), "/api/message", false},
		{"urlEqualTo rejects extra query", stub.URLEqualTo("/api/message"), "/api/message?id=1", false},
		{"urlEqualTo is case-sensitive", stub.URLEqualTo("/custom"), "/Custom", false},
		{"urlPathEqualTo ignores query", stub.URLPathEqualTo("/api/message"), "/api/message?id=1", true},
		{"urlPathEqualTo mismatch", stub.URLPathEqualTo("/api/message"), "/api/messages", false},
		{"urlMatching sees the query", stub.URLMatching("/api/[a-z]+"), "/api/message?id=1", false},
		{"urlMatching full url", stub.URLMatching(`/api/[a-z]+\?id=[0-9]+`), "/api/message?id=1", true},
		{"urlPathMatching ignores query", stub.URLPathMatching("/api/[a-z]+"), "/api/message?id=1", true},
		{"urlPathMatching is anchored", stub.URLPathMatching("message"), "/api/message", false},
		{"anyUrl", stub.AnyURL(), "/whatever?x=1", true},
		{"urlEqualTo compares the escaped url", stub.URLEqualTo("/a%20b"), "/a%20b", true},
		{"urlPathEqualTo compares the escaped path", stub.URLPathEqualTo("/a%20b"), "/a%20b?x=1", true},
		{"urlPathEqualTo does not decode", stub.URLPathEqualTo("/a b"), "/a%20b", false},
		{"urlPathMatching compares the escaped path", stub.URLPathMatching("/a%20[a-z]"), "/a%20b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, stub.Get(tt.url))
			assert.Equal(t, tt.want, p.Matches(get(t, tt.target)))
		})
	}
}

func TestPredicate_Method(t *testing.T) {
	anyMethod := mustCompile(t, stub.Any(stub.AnyURL()))
	getOnly := mustCompile(t, stub.Get(stub.AnyURL()))
	lower := mustCompile(t, stub.NewMapping("post", stub.AnyURL()))

	post := newTestRequest(t, http.MethodPost, "/anything", nil, "payload")

	assert.True(t, anyMethod.Matches(post))
	assert.False(t, getOnly.Matches(post))
	assert.True(t, getOnly.Matches(get(t, "/anything")))
	assert.True(t, lower.Matches(post), "method is normalised to upper case")
}

func TestPredicate_QuerySubset(t *testing.T) {
	p := mustCompile(t, stub.Get(stub.URLPathEqualTo("/api/message")).
		WithQueryParam("id", stub.EqualTo("1")))

	assert.True(t, p.Matches(get(t, "/api/message?id=1")))
	assert.True(t, p.Matches(get(t, "/api/message?id=1&extra=2")), "extra params are ignored")
	assert.True(t, p.Matches(get(t, "/api/message?id=0&id=1")), "any value may match")
	assert.False(t, p.Matches(get(t, "/api/message?id=2")))
	assert.False(t, p.Matches(get(t, "/api/message")))
}

func TestPredicate_Headers(t *testing.T) {
	p := mustCompile(t, stub.Get(stub.URLEqualTo("/custom")).
		WithHeader("accept", stub.EqualTo("text/plain")).
		WithHeader("X-Debug", stub.Absent()))

	assert.True(t, p.Matches(newTestRequest(t, http.MethodGet, "/custom", map[string]string{"Accept": "text/plain"}, "")))
	assert.False(t, p.Matches(newTestRequest(t, http.MethodGet, "/custom", map[string]string{"Accept": "TEXT/PLAIN"}, "")),
		"header values are case-sensitive")
	assert.False(t, p.Matches(newTestRequest(t, http.MethodGet, "/custom", map[string]string{
		"Accept":  "text/plain",
		"X-Debug": "1",
	}, "")))
	assert.False(t, p.Matches(get(t, "/custom")))
}

func TestPredicate_Cookies(t *testing.T) {
	p := mustCompile(t, stub.Get(stub.AnyURL()).WithCookie("name", stub.EqualTo("Ankit")))

	assert.True(t, p.Matches(newTestRequest(t, http.MethodGet, "/", map[string]string{"Cookie": "name=Ankit; theme=dark"}, "")))
	assert.False(t, p.Matches(newTestRequest(t, http.MethodGet, "/", map[string]string{"Cookie": "name=ankit"}, "")))
	assert.False(t, p.Matches(get(t, "/")))
}

func TestPredicate_BasicAuth(t *testing.T) {
	p := mustCompile(t, stub.Get(stub.URLPathEqualTo("/secure")).WithBasicAuth("user", "secret"))

	assert.True(t, p.Matches(newTestRequest(t, http.MethodGet, "/secure", map[string]string{"Authorization": basic("user:secret")}, "")))
	assert.False(t, p.Matches(newTestRequest(t, http.MethodGet, "/secure", map[string]string{"Authorization": basic("user:nope")}, "")))
	assert.False(t, p.Matches(get(t, "/secure")))
}

func TestPredicate_Expression(t *testing.T) {
	p := mustCompile(t, stub.Post(stub.AnyURL()).
		WithExpression(`headers["X-Tenant"] == "acme" && query["page"] == "2" && body contains "hello"`))

	ok := newTestRequest(t, http.MethodPost, "/items?page=2", map[string]string{"X-Tenant": "acme"}, "say hello")
	assert.True(t, p.Matches(ok))

	wrong := newTestRequest(t, http.MethodPost, "/items?page=3", map[string]string{"X-Tenant": "acme"}, "say hello")
	assert.False(t, p.Matches(wrong))
}

func TestPredicate_EmptyMatchesEverything(t *testing.T) {
	p, err := Compile(nil)
	require.NoError(t, err)
	assert.True(t, p.Matches(newTestRequest(t, http.MethodDelete, "/x?y=z", nil, "body")))

	p, err = Compile(&stub.RequestPattern{})
	require.NoError(t, err)
	assert.True(t, p.Matches(get(t, "/")))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pattern stub.RequestPattern
		wantErr string
	}{
		{
			name:    "invalid method",
			pattern: stub.RequestPattern{Method: "GE T"},
			wantErr: "request.method",
		},
		{
			name:    "two url kinds",
			pattern: stub.RequestPattern{URL: "/a", URLPath: "/a"},
			wantErr: "request.urlPath",
		},
		{
			name:    "malformed url regex",
			pattern: stub.RequestPattern{URLPattern: "/api/(unclosed"},
			wantErr: "request.urlPattern",
		},
		{
			name: "basic auth with authorization header",
			pattern: stub.RequestPattern{
				Headers:   map[string]stub.ValuePattern{"authorization": stub.Containing("Basic")},
				BasicAuth: &stub.BasicAuth{Username: "u", Password: "p"},
			},
			wantErr: "contradicts request.headers.Authorization",
		},
		{
			name:    "empty header name",
			pattern: stub.RequestPattern{Headers: map[string]stub.ValuePattern{"": stub.EqualTo("x")}},
			wantErr: "empty name",
		},
		{
			name:    "invalid header name",
			pattern: stub.RequestPattern{Headers: map[string]stub.ValuePattern{"Bad Header": stub.EqualTo("x")}},
			wantErr: "invalid header name",
		},
		{
			name: "duplicate header names differing in case",
			pattern: stub.RequestPattern{Headers: map[string]stub.ValuePattern{
				"accept": stub.EqualTo("a"),
				"Accept": stub.EqualTo("b"),
			}},
			wantErr: "duplicate header name",
		},
		{
			name:    "empty query name",
			pattern: stub.RequestPattern{QueryParameters: map[string]stub.ValuePattern{"": stub.EqualTo("x")}},
			wantErr: "request.queryParameters",
		},
		{
			name:    "cookie without operator",
			pattern: stub.RequestPattern{Cookies: map[string]stub.ValuePattern{"name": {}}},
			wantErr: "request.cookies.name",
		},
		{
			name:    "malformed expression",
			pattern: stub.RequestPattern{Expression: "method =="},
			wantErr: "request.expression",
		},
		{
			name:    "non-boolean expression",
			pattern: stub.RequestPattern{Expression: "1 + 1"},
			wantErr: "request.expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(&tt.pattern)
			require.Error(t, err)
			assert.ErrorIs(t, err, stub.ErrInvalidPredicate)
			assert.Contains(t, err.Error(), tt.wantErr)

			var ipe *stub.InvalidPredicateError
			assert.ErrorAs(t, err, &ipe)
		})
	}
}
