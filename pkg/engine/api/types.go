package api

import (
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse = httputil.ErrorResponse

// HealthResponse is returned by GET /__admin/health.
type HealthResponse struct {
	Status   string `json:"status"`
	Uptime   int    `json:"uptime"`
	Stubs    int    `json:"stubs"`
	Requests int    `json:"requests"`
}

// MappingListResponse is returned by GET /__admin/mappings.
type MappingListResponse struct {
	Mappings []*stub.Stub `json:"mappings"`
	Count    int          `json:"count"`
}

// ImportResponse is returned by POST /__admin/mappings/import.
type ImportResponse struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// RequestListResponse is returned by the request listing routes.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// CountResponse is returned by POST /__admin/requests/count.
type CountResponse struct {
	Count int `json:"count"`
}
