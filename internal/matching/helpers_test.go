package matching

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/stub"
)

// newTestRequest builds a matcher request from an httptest request.
func newTestRequest(t *testing.T, method, target string, headers map[string]string, body string) *Request {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	req, err := NewRequest(r, []byte(body))
	require.NoError(t, err)
	return req
}

func mustCompile(t *testing.T, b stub.MappingBuilder) *Predicate {
	t.Helper()
	s := b.Build()
	p, err := Compile(&s.Request)
	require.NoError(t, err)
	return p
}

func get(t *testing.T, target string) *Request {
	t.Helper()
	return newTestRequest(t, http.MethodGet, target, nil, "")
}
