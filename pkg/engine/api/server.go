package api

import (
	"log/slog"
	"net/http"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// PathPrefix is where the admin routes are mounted.
const PathPrefix = "/__admin"

// Controller is the interface the API uses to control the stub server.
// This is implemented by engine.ControlAPIAdapter.
type Controller interface {
	// Status
	IsRunning() bool
	Uptime() int
	MetricsHandler() http.Handler

	// Stubs
	RegisterStub(s *stub.Stub) (string, error)
	ImportStubs(stubs []*stub.Stub, replace bool) ([]string, error)
	GetStub(id string) *stub.Stub
	RemoveStub(id string) bool
	ListStubs() []*stub.Stub
	ClearStubs()
	ResetMappings() error
	Reset() error

	// Request journal
	ListRequests(filter *requestlog.Filter) []*requestlog.Entry
	GetRequest(id string) *requestlog.Entry
	RequestCount() int
	ClearRequests()
	FindRequests(p *stub.RequestPattern) ([]*requestlog.Entry, error)
	CountRequests(p *stub.RequestPattern) (int, error)
}

// Handler serves the admin routes.
type Handler struct {
	ctrl Controller
	mux  *http.ServeMux
	log  *slog.Logger
}

// NewHandler creates the admin API handler for ctrl.
func NewHandler(ctrl Controller) *Handler {
	h := &Handler{
		ctrl: ctrl,
		mux:  http.NewServeMux(),
		log:  logging.Nop(),
	}
	h.registerRoutes(h.mux)
	return h
}

// SetLogger sets the logger.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes(mux *http.ServeMux) {
	// Health
	mux.HandleFunc("GET "+PathPrefix+"/health", h.handleHealth)
	mux.HandleFunc("GET "+PathPrefix+"/metrics", h.handleMetrics)

	// Mappings
	mux.HandleFunc("GET "+PathPrefix+"/mappings", h.handleListMappings)
	mux.HandleFunc("POST "+PathPrefix+"/mappings", h.handleCreateMapping)
	mux.HandleFunc("DELETE "+PathPrefix+"/mappings", h.handleDeleteMappings)
	mux.HandleFunc("POST "+PathPrefix+"/mappings/reset", h.handleResetMappings)
	mux.HandleFunc("POST "+PathPrefix+"/mappings/import", h.handleImportMappings)
	mux.HandleFunc("GET "+PathPrefix+"/mappings/{id}", h.handleGetMapping)
	mux.HandleFunc("PUT "+PathPrefix+"/mappings/{id}", h.handleUpdateMapping)
	mux.HandleFunc("DELETE "+PathPrefix+"/mappings/{id}", h.handleDeleteMapping)

	// Request journal
	mux.HandleFunc("GET "+PathPrefix+"/requests", h.handleListRequests)
	mux.HandleFunc("DELETE "+PathPrefix+"/requests", h.handleClearRequests)
	mux.HandleFunc("GET "+PathPrefix+"/requests/unmatched", h.handleUnmatchedRequests)
	mux.HandleFunc("GET "+PathPrefix+"/requests/{id}", h.handleGetRequest)
	mux.HandleFunc("POST "+PathPrefix+"/requests/count", h.handleCountRequests)
	mux.HandleFunc("POST "+PathPrefix+"/requests/find", h.handleFindRequests)

	// Global reset
	mux.HandleFunc("POST "+PathPrefix+"/reset", h.handleReset)

	mux.HandleFunc(PathPrefix+"/", h.handleNotFound)
}
