package api_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/engine/api"
	"github.com/getmockd/stubd/pkg/stub"
)

type adminClient struct {
	t   *testing.T
	srv *engine.Server
}

func newAdminClient(t *testing.T) *adminClient {
	t.Helper()
	return &adminClient{t: t, srv: engine.NewServer(config.DefaultServerConfiguration())}
}

func (c *adminClient) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	c.srv.Handler().ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAdmin_Health(t *testing.T) {
	c := newAdminClient(t)

	rec := c.do(http.MethodGet, "/__admin/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[api.HealthResponse](t, rec)
	assert.Equal(t, "stopped", health.Status)
	assert.Zero(t, health.Stubs)
}

func TestAdmin_MappingLifecycle(t *testing.T) {
	c := newAdminClient(t)

	rec := c.do(http.MethodPost, "/__admin/mappings", "application/json",
		`{"id": "msg", "request": {"method": "GET", "urlPath": "/api/message"}, "response": {"status": 200, "body": "hello"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[stub.Stub](t, rec)
	assert.Equal(t, "msg", created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	rec = c.do(http.MethodGet, "/api/message", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = c.do(http.MethodPost, "/__admin/mappings", "application/json",
		`{"id": "msg", "request": {"url": "/dup"}, "response": {}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do(http.MethodGet, "/__admin/mappings/msg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/message", decode[stub.Stub](t, rec).Request.URLPath)

	rec = c.do(http.MethodPut, "/__admin/mappings/msg", "application/json",
		`{"id": "ignored", "request": {"method": "GET", "urlPath": "/api/message"}, "response": {"body": "updated"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "msg", decode[stub.Stub](t, rec).ID, "path ID wins over body")

	rec = c.do(http.MethodGet, "/api/message", "", "")
	assert.Equal(t, "updated", rec.Body.String())

	rec = c.do(http.MethodPut, "/__admin/mappings/nope", "application/json", `{"request": {}, "response": {}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/__admin/mappings", "", "")
	list := decode[api.MappingListResponse](t, rec)
	assert.Equal(t, 1, list.Count)

	rec = c.do(http.MethodDelete, "/__admin/mappings/msg", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = c.do(http.MethodDelete, "/__admin/mappings/msg", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.do(http.MethodGet, "/__admin/mappings/msg", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_CreateMappingErrors(t *testing.T) {
	c := newAdminClient(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"request":`, "invalid_json"},
		{"unknown field", `{"request": {"urll": "/x"}, "response": {}}`, "invalid_json"},
		{"bad regex", `{"request": {"urlPattern": "("}, "response": {}}`, "invalid_mapping"},
		{"contradictory url", `{"request": {"url": "/a", "urlPath": "/a"}, "response": {}}`, "invalid_mapping"},
		{"bad status", `{"request": {}, "response": {"status": 700}}`, "invalid_mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := c.do(http.MethodPost, "/__admin/mappings", "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestAdmin_ImportMappings(t *testing.T) {
	c := newAdminClient(t)

	rec := c.do(http.MethodPost, "/__admin/mappings/import", "application/json",
		`{"mappings": [{"request": {"url": "/a"}, "response": {"body": "a"}}, {"request": {"url": "/b"}, "response": {"body": "b"}}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[api.ImportResponse](t, rec).Imported)

	yaml := "- request:\n    url: /c\n  response:\n    body: c\n"
	rec = c.do(http.MethodPost, "/__admin/mappings/import?replace=true", "application/yaml", yaml)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[api.ImportResponse](t, rec).Imported)
	assert.Len(t, c.srv.Stubs(), 1)

	rec = c.do(http.MethodPost, "/__admin/mappings/import?replace=true", "application/json",
		`[{"request": {"url": "/d"}, "response": {}}, {"request": {"urlPattern": "("}, "response": {}}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, c.srv.Stubs(), 1, "a failed replace keeps the old stubs")

	rec = c.do(http.MethodPost, "/__admin/mappings/import", "application/json", `{"nope": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_mappings", decode[api.ErrorResponse](t, rec).Error)
}

func TestAdmin_ResetAndDeleteAll(t *testing.T) {
	c := newAdminClient(t)
	_, err := c.srv.StubFor(stub.Get(stub.AnyURL()))
	require.NoError(t, err)
	c.do(http.MethodGet, "/x", "", "")
	require.Equal(t, 1, c.srv.RequestCount())

	rec := c.do(http.MethodDelete, "/__admin/mappings", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, c.srv.Stubs())
	assert.Equal(t, 1, c.srv.RequestCount(), "deleting mappings keeps the journal")

	rec = c.do(http.MethodPost, "/__admin/mappings/reset", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodPost, "/__admin/reset", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, c.srv.RequestCount())
}

func TestAdmin_RequestJournal(t *testing.T) {
	c := newAdminClient(t)
	_, err := c.srv.StubFor(stub.Get(stub.URLPathEqualTo("/api/message")).WithID("msg"))
	require.NoError(t, err)

	c.do(http.MethodGet, "/api/message?id=1", "", "")
	c.do(http.MethodGet, "/api/message?id=2", "", "")
	c.do(http.MethodPost, "/missing", "", "")

	rec := c.do(http.MethodGet, "/__admin/requests", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[api.RequestListResponse](t, rec)
	assert.Equal(t, 3, list.Count)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, "/missing", list.Requests[0].Path)

	rec = c.do(http.MethodGet, "/__admin/requests?stubId=msg&limit=1", "", "")
	list = decode[api.RequestListResponse](t, rec)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, "/api/message?id=2", list.Requests[0].URL)

	rec = c.do(http.MethodGet, "/__admin/requests/"+list.Requests[0].ID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = c.do(http.MethodGet, "/__admin/requests/req-missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodGet, "/__admin/requests/unmatched", "", "")
	list = decode[api.RequestListResponse](t, rec)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, http.MethodPost, list.Requests[0].Method)

	rec = c.do(http.MethodPost, "/__admin/requests/count", "application/json",
		`{"method": "GET", "queryParameters": {"id": {"equalTo": "2"}}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[api.CountResponse](t, rec).Count)

	rec = c.do(http.MethodPost, "/__admin/requests/count", "", "")
	assert.Equal(t, 3, decode[api.CountResponse](t, rec).Count, "an empty pattern counts everything")

	rec = c.do(http.MethodPost, "/__admin/requests/find", "application/json", `{"urlPath": "/api/message"}`)
	assert.Equal(t, 2, decode[api.RequestListResponse](t, rec).Count)

	rec = c.do(http.MethodPost, "/__admin/requests/count", "application/json", `{"urlPattern": "("}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodDelete, "/__admin/requests", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, c.srv.RequestCount())
}

func TestAdmin_UnknownRoute(t *testing.T) {
	c := newAdminClient(t)

	rec := c.do(http.MethodGet, "/__admin/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[api.ErrorResponse](t, rec).Error)
}

func TestAdmin_Metrics(t *testing.T) {
	c := newAdminClient(t)
	_, err := c.srv.StubFor(stub.Get(stub.URLEqualTo("/custom")))
	require.NoError(t, err)

	c.do(http.MethodGet, "/custom", "", "")
	c.do(http.MethodGet, "/other", "", "")

	rec := c.do(http.MethodGet, "/__admin/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))

	body := rec.Body.String()
	assert.Contains(t, body, `stubd_requests_total{method="GET",status="200",matched="true"} 1`)
	assert.Contains(t, body, `stubd_requests_total{method="GET",status="404",matched="false"} 1`)
	assert.Contains(t, body, "stubd_unmatched_requests_total 1\n")
	assert.Contains(t, body, "stubd_stubs 1\n")
	assert.Contains(t, body, "stubd_journal_entries 2\n")
}
