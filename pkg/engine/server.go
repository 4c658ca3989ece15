package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/internal/storage"
	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/engine/api"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// BindConfig describes where the server listens.
type BindConfig struct {
	Host string
	// Port is the fixed port. Ignored when DynamicPort is set.
	Port int
	// DynamicPort binds port 0 so the OS picks a free port on every start.
	DynamicPort bool
}

// Addr returns the listen address in host:port form.
func (b BindConfig) Addr() string {
	port := b.Port
	if b.DynamicPort {
		port = 0
	}
	return net.JoinHostPort(b.Host, strconv.Itoa(port))
}

// StubBuilder is implemented by stub.MappingBuilder.
type StubBuilder interface {
	Build() *stub.Stub
}

// Server is an HTTP stub server.
type Server struct {
	cfg     *config.ServerConfiguration
	store   storage.StubStore
	journal *Journal
	handler *Handler
	metrics *metrics.ServerMetrics
	log     *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	cancelBase context.CancelFunc
	served     chan struct{}

	running   atomic.Bool
	port      atomic.Int64
	startTime atomic.Int64
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// NewServer creates a stopped Server with the given configuration.
func NewServer(cfg *config.ServerConfiguration, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfiguration()
	}

	s := &Server{
		cfg:     cfg,
		store:   storage.NewInMemoryStubStore(),
		journal: NewJournal(cfg.MaxJournalEntries),
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.metrics = metrics.NewServerMetrics(s)
	s.handler = NewHandler(s.store, s.journal)
	s.handler.SetLogger(s.log)
	s.handler.SetMetrics(s.metrics)
	s.handler.SetMaxBodySize(int64(cfg.MaxBodySize))
	if !cfg.DisableAdmin {
		admin := api.NewHandler(NewControlAPIAdapter(s))
		admin.SetLogger(s.log)
		s.handler.SetAdmin(admin)
	}

	return s
}

// Bind returns the bind settings derived from the configuration.
func (s *Server) Bind() BindConfig {
	return BindConfig{
		Host:        s.cfg.Host,
		Port:        s.cfg.Port,
		DynamicPort: s.cfg.UsesDynamicPort(),
	}
}

// Start loads the configured mapping files, binds the listener and begins
// serving. It returns the bound port. Calling Start on a running server
// returns the current port.
func (s *Server) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return s.Port(), nil
	}

	mappings, err := s.mappingStubs()
	if err != nil {
		return 0, err
	}

	bind := s.Bind()
	ln, err := net.Listen("tcp", bind.Addr())
	if err != nil {
		return 0, &BindError{Addr: bind.Addr(), Err: err}
	}
	port := ln.Addr().(*net.TCPAddr).Port

	// Mapping stubs are added after the bind succeeds so a failed Start
	// leaves stubs registered before it untouched.
	if _, err := s.store.RegisterAll(mappings); err != nil {
		_ = ln.Close()
		return 0, fmt.Errorf("load mappings: %w", err)
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
	served := make(chan struct{})

	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.httpServer = srv
	s.cancelBase = cancel
	s.served = served
	s.port.Store(int64(port))
	s.startTime.Store(time.Now().UnixNano())
	s.running.Store(true)

	s.log.Info("stub server started", "addr", ln.Addr().String(), "port", port, "stubs", s.store.Count())
	return port, nil
}

// Stop stops accepting connections, waits up to the drain timeout for
// in-flight requests, then closes what remains. All stubs and journal
// entries are discarded. Stop on a stopped server is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return nil
	}

	drain := s.cfg.DrainTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), drain)
	defer cancel()

	var stopErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn("drain timeout exceeded, closing connections", "timeout", drain, "error", err)
		s.cancelBase()
		if err := s.httpServer.Close(); err != nil {
			stopErr = fmt.Errorf("HTTP close: %w", err)
		}
	}
	s.cancelBase()
	<-s.served

	s.store.Reset()
	s.journal.Clear()

	s.httpServer = nil
	s.running.Store(false)
	s.port.Store(0)
	s.startTime.Store(0)

	s.log.Info("stub server stopped")
	return stopErr
}

// mappingStubs reads the configured mapping files. Stubs are not compiled
// or registered.
func (s *Server) mappingStubs() ([]*stub.Stub, error) {
	if len(s.cfg.Mappings) == 0 {
		return nil, nil
	}

	baseDir := s.cfg.RootDir
	if baseDir == "" {
		baseDir = "."
	}
	stubs, err := config.LoadMappings(s.cfg.Mappings, baseDir)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	s.log.Debug("read mapping files", "stubs", len(stubs))
	return stubs, nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Port returns the bound port, or 0 when stopped.
func (s *Server) Port() int {
	return int(s.port.Load())
}

// BaseURL returns the http://host:port URL of the running server.
func (s *Server) BaseURL() string {
	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port()))
}

// Uptime returns seconds since the last Start, or 0 when stopped.
func (s *Server) Uptime() int {
	started := s.startTime.Load()
	if started == 0 {
		return 0
	}
	return int(time.Since(time.Unix(0, started)).Seconds())
}

// Config returns the server configuration.
func (s *Server) Config() *config.ServerConfiguration {
	return s.cfg
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *metrics.ServerMetrics {
	return s.metrics
}

// Handler returns the request dispatcher, including the admin API.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// StubFor registers the stub produced by b and returns its ID.
func (s *Server) StubFor(b StubBuilder) (string, error) {
	return s.Register(b.Build())
}

// Register validates and registers a stub. The stub becomes the most recent
// registration and wins over every earlier stub matching the same requests.
func (s *Server) Register(st *stub.Stub) (string, error) {
	id, err := s.store.Register(st)
	if err != nil {
		return "", err
	}
	s.log.Debug("stub registered", "id", id, "name", st.Name)
	return id, nil
}

// ValidateStubs compiles every stub without registering it and returns the
// first failure.
func ValidateStubs(stubs []*stub.Stub) error {
	_, err := storage.NewInMemoryStubStore().RegisterAll(stubs)
	return err
}

// RegisterAll registers stubs in order as one step. If any stub is invalid
// none is registered.
func (s *Server) RegisterAll(stubs []*stub.Stub) ([]string, error) {
	ids, err := s.store.RegisterAll(stubs)
	if err != nil {
		return nil, err
	}
	s.log.Debug("stubs registered", "count", len(ids))
	return ids, nil
}

// ReplaceStubs swaps every registered stub for stubs in one step. Requests
// served concurrently match against either the old or the new set. If any
// stub is invalid the registry is left unchanged.
func (s *Server) ReplaceStubs(stubs []*stub.Stub) ([]string, error) {
	ids, err := s.store.ReplaceAll(stubs)
	if err != nil {
		return nil, err
	}
	s.log.Debug("stubs replaced", "count", len(ids))
	return ids, nil
}

// GetStub returns a registered stub by ID, or nil.
func (s *Server) GetStub(id string) *stub.Stub {
	return s.store.Get(id)
}

// RemoveStub removes a stub by ID and reports whether it existed.
func (s *Server) RemoveStub(id string) bool {
	return s.store.Remove(id)
}

// Stubs returns the registered stubs, most recent first.
func (s *Server) Stubs() []*stub.Stub {
	return s.store.List()
}

// StubCount returns the number of registered stubs.
func (s *Server) StubCount() int {
	return s.store.Count()
}

// ResetStubs removes every registered stub.
func (s *Server) ResetStubs() {
	s.store.Reset()
}

// ResetMappings replaces every stub with those of the configured mapping
// files. If the files cannot be loaded the current stubs are kept.
func (s *Server) ResetMappings() error {
	mappings, err := s.mappingStubs()
	if err != nil {
		return err
	}
	if _, err := s.store.ReplaceAll(mappings); err != nil {
		return fmt.Errorf("load mappings: %w", err)
	}
	return nil
}

// Reset restores the stubs to the mapping files and clears the journal.
// If the mapping files cannot be loaded nothing is changed.
func (s *Server) Reset() error {
	if err := s.ResetMappings(); err != nil {
		return err
	}
	s.journal.Clear()
	return nil
}

// Requests returns journal entries, newest first.
func (s *Server) Requests(filter *requestlog.Filter) []*requestlog.Entry {
	return s.journal.List(filter)
}

// Request returns a journal entry by ID, or nil.
func (s *Server) Request(id string) *requestlog.Entry {
	return s.journal.Get(id)
}

// RequestCount returns the number of journal entries.
func (s *Server) RequestCount() int {
	return s.journal.Count()
}

// ClearRequests empties the journal.
func (s *Server) ClearRequests() {
	s.journal.Clear()
}

// FindRequests returns journaled requests, newest first, matching p.
func (s *Server) FindRequests(p *stub.RequestPattern) ([]*requestlog.Entry, error) {
	pred, err := compilePattern(p)
	if err != nil {
		return nil, err
	}
	return s.journal.Find(pred), nil
}

// CountRequests returns the number of journaled requests matching p.
func (s *Server) CountRequests(p *stub.RequestPattern) (int, error) {
	pred, err := compilePattern(p)
	if err != nil {
		return 0, err
	}
	return s.journal.CountMatching(pred), nil
}

// compilePattern compiles p, treating nil as the match-everything pattern.
func compilePattern(p *stub.RequestPattern) (*matching.Predicate, error) {
	if p == nil {
		p = &stub.RequestPattern{}
	}
	return matching.Compile(p)
}
