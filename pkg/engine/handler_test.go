package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/stub"
)

func newTestServer(t *testing.T, cfg *config.ServerConfiguration) *Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}
	return NewServer(cfg)
}

func serve(srv *Server, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, r)
	return rec
}

func TestHandler_RendersResponse(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Get(stub.URLEqualTo("/custom")).WillReturn(stub.AResponse().
		WithStatus(201).
		WithHeader("X-Stub", "yes").
		WithHeader("Content-Type", "application/xml").
		WithBody("<ok/>")))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/custom", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Stub"))
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<ok/>", rec.Body.String())
}

func TestHandler_DefaultContentType(t *testing.T) {
	tests := []struct {
		name string
		resp stub.ResponseBuilder
		want string
	}{
		{"empty body", stub.AResponse(), "text/plain; charset=utf-8"},
		{"text body", stub.AResponse().WithBody("hello"), "text/plain; charset=utf-8"},
		{"html body", stub.AResponse().WithBody("<html><body>hi</body></html>"), "text/html; charset=utf-8"},
		{"json body", stub.AResponse().WithJSONBody(`{"ok":true}`), "application/json"},
		{"binary body", stub.AResponse().WithBase64Body("iVBORw0KGgo="), "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil)
			mustStub(t, srv, stub.Get(stub.AnyURL()).WillReturn(tt.resp))

			rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, rec.Header().Get("Content-Type"))
		})
	}
}

func TestHandler_NoBodyForHeadAndNoContent(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Head(stub.AnyURL()).WillReturn(stub.AResponse().WithBody("ignored")))
	mustStub(t, srv, stub.Delete(stub.AnyURL()).WillReturn(stub.AResponse().WithStatus(204).WithBody("ignored")))

	rec := serve(srv, httptest.NewRequest(http.MethodHead, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandler_NoMatchReport(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Get(stub.URLEqualTo("/custom")).WithName("custom stub"))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/other", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "GET /other")
	assert.Contains(t, rec.Body.String(), `custom stub (40% match): method matched, but url expected "/custom", got "/other"`)

	entries := srv.Requests(nil)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Matched())
	assert.Equal(t, http.StatusNotFound, entries[0].ResponseStatus)
	require.Len(t, entries[0].NearMisses, 1)
	assert.Equal(t, "custom stub", entries[0].NearMisses[0].StubName)
}

func TestHandler_MalformedRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Any(stub.AnyURL()))

	t.Run("query string", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.URL.RawQuery = "a=%zz"
		rec := serve(srv, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "malformed request")
	})

	t.Run("cookie header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Header.Set("Cookie", "novalue")
		rec := serve(srv, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		cfg := config.DefaultServerConfiguration()
		cfg.MaxBodySize = 8
		small := newTestServer(t, cfg)
		mustStub(t, small, stub.Any(stub.AnyURL()))

		rec := serve(small, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("far more than eight bytes")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "request body too large")
	})

	entries := srv.Requests(nil)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, http.StatusBadRequest, e.ResponseStatus)
		assert.NotEmpty(t, e.Error)
	}
}

func TestHandler_JournalRecordsMatchedRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	id := mustStub(t, srv, stub.Post(stub.URLPathEqualTo("/orders")))

	r := httptest.NewRequest(http.MethodPost, "/orders?src=test", strings.NewReader(`{"id":1}`))
	r.Header.Set("Cookie", "session=abc")
	serve(srv, r)

	entries := srv.Requests(nil)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, id, e.MatchedStubID)
	assert.Equal(t, "/orders?src=test", e.URL)
	assert.Equal(t, "/orders", e.Path)
	assert.Equal(t, `{"id":1}`, e.Body)
	assert.Equal(t, 8, e.BodySize)
	assert.Equal(t, []string{"abc"}, e.Cookies["session"])
	assert.Equal(t, http.StatusOK, e.ResponseStatus)
	assert.Same(t, e, srv.Request(e.ID))
}

func TestHandler_EncodedPath(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Get(stub.URLEqualTo("/a%20b")).WillReturn(stub.AResponse().WithBody("url")))
	mustStub(t, srv, stub.Get(stub.URLPathEqualTo("/c%20d")).WillReturn(stub.AResponse().WithBody("path")))

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/a%20b", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "url", rec.Body.String())

	rec = serve(srv, httptest.NewRequest(http.MethodGet, "/c%20d?q=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "path", rec.Body.String())

	entries := srv.Requests(nil)
	require.Len(t, entries, 2)
	assert.Equal(t, "/c%20d", entries[0].Path)

	count, err := srv.CountRequests(&stub.RequestPattern{URLPath: "/c%20d"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandler_FixedDelay(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Get(stub.AnyURL()).WillReturn(stub.AResponse().WithBody("late").WithFixedDelay(60)))

	start := time.Now()
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.Equal(t, "late", rec.Body.String())
}

func TestHandler_FixedDelayCancelled(t *testing.T) {
	srv := newTestServer(t, nil)
	mustStub(t, srv, stub.Get(stub.AnyURL()).WillReturn(stub.AResponse().WithBody("late").WithFixedDelay(10000)))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, rec.Body.String())

	entries := srv.Requests(nil)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Error, "context deadline exceeded")
}

func TestHandler_AdminMount(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/__admin/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Zero(t, srv.RequestCount(), "admin calls are not journaled")

	cfg := config.DefaultServerConfiguration()
	cfg.DisableAdmin = true
	noAdmin := newTestServer(t, cfg)

	rec = serve(noAdmin, httptest.NewRequest(http.MethodGet, "/__admin/health", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request was not matched")
}
