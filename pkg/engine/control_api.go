package engine

import (
	"net/http"

	"github.com/getmockd/stubd/pkg/engine/api"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// ControlAPIAdapter adapts engine.Server to the api.Controller interface.
// This breaks the import cycle by providing an adapter that the api package can use.
type ControlAPIAdapter struct {
	server *Server
}

// NewControlAPIAdapter creates a new adapter for the given server.
func NewControlAPIAdapter(s *Server) *ControlAPIAdapter {
	return &ControlAPIAdapter{server: s}
}

// IsRunning implements api.Controller.
func (a *ControlAPIAdapter) IsRunning() bool {
	return a.server.IsRunning()
}

// Uptime implements api.Controller.
func (a *ControlAPIAdapter) Uptime() int {
	return a.server.Uptime()
}

// MetricsHandler implements api.Controller.
func (a *ControlAPIAdapter) MetricsHandler() http.Handler {
	return a.server.Metrics().Registry.Handler()
}

// RegisterStub implements api.Controller.
func (a *ControlAPIAdapter) RegisterStub(s *stub.Stub) (string, error) {
	return a.server.Register(s)
}

// ImportStubs implements api.Controller.
func (a *ControlAPIAdapter) ImportStubs(stubs []*stub.Stub, replace bool) ([]string, error) {
	if replace {
		return a.server.ReplaceStubs(stubs)
	}
	return a.server.RegisterAll(stubs)
}

// GetStub implements api.Controller.
func (a *ControlAPIAdapter) GetStub(id string) *stub.Stub {
	return a.server.GetStub(id)
}

// RemoveStub implements api.Controller.
func (a *ControlAPIAdapter) RemoveStub(id string) bool {
	return a.server.RemoveStub(id)
}

// ListStubs implements api.Controller.
func (a *ControlAPIAdapter) ListStubs() []*stub.Stub {
	return a.server.Stubs()
}

// ClearStubs implements api.Controller.
func (a *ControlAPIAdapter) ClearStubs() {
	a.server.ResetStubs()
}

// ResetMappings implements api.Controller.
func (a *ControlAPIAdapter) ResetMappings() error {
	return a.server.ResetMappings()
}

// Reset implements api.Controller.
func (a *ControlAPIAdapter) Reset() error {
	return a.server.Reset()
}

// ListRequests implements api.Controller.
func (a *ControlAPIAdapter) ListRequests(filter *requestlog.Filter) []*requestlog.Entry {
	return a.server.Requests(filter)
}

// GetRequest implements api.Controller.
func (a *ControlAPIAdapter) GetRequest(id string) *requestlog.Entry {
	return a.server.Request(id)
}

// RequestCount implements api.Controller.
func (a *ControlAPIAdapter) RequestCount() int {
	return a.server.RequestCount()
}

// ClearRequests implements api.Controller.
func (a *ControlAPIAdapter) ClearRequests() {
	a.server.ClearRequests()
}

// FindRequests implements api.Controller.
func (a *ControlAPIAdapter) FindRequests(p *stub.RequestPattern) ([]*requestlog.Entry, error) {
	return a.server.FindRequests(p)
}

// CountRequests implements api.Controller.
func (a *ControlAPIAdapter) CountRequests(p *stub.RequestPattern) (int, error) {
	return a.server.CountRequests(p)
}

// Ensure ControlAPIAdapter implements api.Controller.
var _ api.Controller = (*ControlAPIAdapter)(nil)
