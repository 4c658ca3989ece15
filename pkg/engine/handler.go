package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/internal/storage"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

// AdminPathPrefix is the path prefix reserved for the admin API.
const AdminPathPrefix = "/__admin"

// nearMissCount is the number of closest stubs listed in a 404 report.
const nearMissCount = 3

// Handler dispatches inbound requests to registered stubs.
type Handler struct {
	store       storage.StubStore
	journal     requestlog.Logger
	admin       http.Handler
	maxBodySize int64
	metrics     *metrics.ServerMetrics
	log         *slog.Logger
}

// NewHandler creates a Handler answering from store and recording to journal.
func NewHandler(store storage.StubStore, journal requestlog.Logger) *Handler {
	return &Handler{
		store:   store,
		journal: journal,
		log:     logging.Nop(),
	}
}

// SetLogger sets the operational logger.
func (h *Handler) SetLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	}
}

// SetAdmin mounts an admin API handler under AdminPathPrefix. Nil unmounts it.
func (h *Handler) SetAdmin(admin http.Handler) {
	h.admin = admin
}

// SetMetrics sets the metrics recorded for every dispatched request.
func (h *Handler) SetMetrics(m *metrics.ServerMetrics) {
	h.metrics = m
}

// SetMaxBodySize bounds the request body size. Zero means unlimited.
func (h *Handler) SetMaxBodySize(n int64) {
	h.maxBodySize = n
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.admin != nil && isAdminPath(r.URL.Path) {
		h.admin.ServeHTTP(w, r)
		return
	}

	defer h.metrics.TrackInFlight()()

	start := time.Now()
	entry := &requestlog.Entry{
		Timestamp:  start,
		Method:     r.Method,
		URL:        r.URL.RequestURI(),
		Path:       r.URL.EscapedPath(),
		Headers:    r.Header.Clone(),
		RemoteAddr: r.RemoteAddr,
	}
	defer func() {
		elapsed := time.Since(start)
		entry.DurationMs = int(elapsed.Milliseconds())
		h.journal.Log(entry)
		h.metrics.ObserveRequest(r.Method, entry.ResponseStatus, entry.Matched(), elapsed)
	}()

	req, err := h.parse(w, r)
	if err != nil {
		h.log.Debug("malformed request", "method", r.Method, "url", entry.URL, "error", err)
		entry.Error = err.Error()
		entry.ResponseStatus = http.StatusBadRequest
		httputil.WriteText(w, http.StatusBadRequest, err.Error()+"\n")
		return
	}
	entry.Cookies = req.Cookies
	entry.Body = string(req.Body)
	entry.BodySize = len(req.Body)

	match := h.store.FindBestMatch(req)
	if match == nil {
		nm := &NoMatchError{
			Method:     req.Method,
			URL:        req.URL,
			NearMisses: h.store.NearMisses(req, nearMissCount),
			req:        req,
		}
		h.log.Debug("request not matched", "method", req.Method, "url", req.URL, "nearMisses", len(nm.NearMisses))
		entry.ResponseStatus = http.StatusNotFound
		entry.NearMisses = nearMissInfo(nm.NearMisses)
		httputil.WriteText(w, http.StatusNotFound, nm.Report())
		return
	}

	entry.MatchedStubID = match.Stub.ID
	entry.ResponseStatus, err = h.render(w, r, match.Stub)
	if err != nil {
		entry.Error = err.Error()
	}
}

// parse reads the body and builds the matcher's view of the request.
func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (*matching.Request, error) {
	var body []byte
	if r.Body != nil {
		reader := r.Body
		if h.maxBodySize > 0 {
			reader = http.MaxBytesReader(w, r.Body, h.maxBodySize)
		}
		var err error
		body, err = io.ReadAll(reader)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, &MalformedRequestError{Reason: "request body too large", Err: err}
			}
			return nil, &MalformedRequestError{Reason: "unreadable request body", Err: err}
		}
	}

	req, err := matching.NewRequest(r, body)
	if err != nil {
		return nil, &MalformedRequestError{Reason: "unparsable request", Err: err}
	}
	return req, nil
}

// render writes the stub's response and returns the status sent.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, s *stub.Stub) (int, error) {
	resp := &s.Response

	if d := resp.Delay(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-r.Context().Done():
			timer.Stop()
			h.log.Debug("client went away during delay", "stub", s.ID)
			return 0, r.Context().Err()
		}
	}

	body := resp.BodyBytes()
	header := w.Header()
	for name, value := range resp.Headers {
		header.Set(name, value)
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", defaultContentType(resp, body))
	}

	status := resp.StatusCode()
	w.WriteHeader(status)
	if r.Method == http.MethodHead || !bodyAllowed(status) || len(body) == 0 {
		return status, nil
	}
	if _, err := w.Write(body); err != nil {
		h.log.Debug("failed to write response body", "stub", s.ID, "error", err)
		return status, err
	}
	return status, nil
}

func defaultContentType(resp *stub.ResponseDefinition, body []byte) string {
	switch {
	case len(resp.JSONBody) > 0:
		return "application/json"
	case len(body) == 0:
		return "text/plain; charset=utf-8"
	default:
		return http.DetectContentType(body)
	}
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified
}

func isAdminPath(path string) bool {
	return path == AdminPathPrefix || strings.HasPrefix(path, AdminPathPrefix+"/")
}

func nearMissInfo(misses []matching.NearMiss) []requestlog.NearMissInfo {
	if len(misses) == 0 {
		return nil
	}
	out := make([]requestlog.NearMissInfo, len(misses))
	for i, nm := range misses {
		out[i] = requestlog.NearMissInfo{
			StubID:          nm.StubID,
			StubName:        nm.StubName,
			MatchPercentage: nm.MatchPercentage,
			Reason:          nm.Reason,
		}
	}
	return out
}
