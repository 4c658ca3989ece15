package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/getmockd/stubd/pkg/config"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
)

const (
	maxRequestBodySize = 10 << 20 // 10MB
	defaultListLimit   = 100
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !h.ctrl.IsRunning() {
		status = "stopped"
	}
	httputil.WriteOK(w, HealthResponse{
		Status:   status,
		Uptime:   h.ctrl.Uptime(),
		Stubs:    len(h.ctrl.ListStubs()),
		Requests: h.ctrl.RequestCount(),
	})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h.ctrl.MetricsHandler().ServeHTTP(w, r)
}

func (h *Handler) handleListMappings(w http.ResponseWriter, r *http.Request) {
	stubs := h.ctrl.ListStubs()
	httputil.WriteOK(w, MappingListResponse{
		Mappings: stubs,
		Count:    len(stubs),
	})
}

func (h *Handler) handleGetMapping(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.GetStub(r.PathValue("id"))
	if s == nil {
		httputil.WriteNotFound(w, "not_found", "mapping not found")
		return
	}
	httputil.WriteOK(w, s)
}

func (h *Handler) handleCreateMapping(w http.ResponseWriter, r *http.Request) {
	limitedBody(w, r)
	var s stub.Stub
	if err := decodeJSONBody(r, &s); err != nil {
		writeDecodeError(w, err)
		return
	}

	if s.ID != "" && h.ctrl.GetStub(s.ID) != nil {
		httputil.WriteConflict(w, "duplicate_id", "mapping with this ID already exists")
		return
	}

	id, err := h.ctrl.RegisterStub(&s)
	if err != nil {
		writeRegisterError(w, err)
		return
	}
	h.log.Debug("mapping created", "id", id)
	httputil.WriteCreated(w, h.ctrl.GetStub(id))
}

func (h *Handler) handleUpdateMapping(w http.ResponseWriter, r *http.Request) {
	limitedBody(w, r)
	id := r.PathValue("id")

	if h.ctrl.GetStub(id) == nil {
		httputil.WriteNotFound(w, "not_found", "mapping not found")
		return
	}

	var s stub.Stub
	if err := decodeJSONBody(r, &s); err != nil {
		writeDecodeError(w, err)
		return
	}
	s.ID = id // path wins over body

	if _, err := h.ctrl.RegisterStub(&s); err != nil {
		writeRegisterError(w, err)
		return
	}
	httputil.WriteOK(w, h.ctrl.GetStub(id))
}

func (h *Handler) handleDeleteMapping(w http.ResponseWriter, r *http.Request) {
	if !h.ctrl.RemoveStub(r.PathValue("id")) {
		httputil.WriteNotFound(w, "not_found", "mapping not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) handleDeleteMappings(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearStubs()
	httputil.WriteNoContent(w)
}

func (h *Handler) handleResetMappings(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.ResetMappings(); err != nil {
		h.log.Error("failed to reload mapping files", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) handleImportMappings(w http.ResponseWriter, r *http.Request) {
	limitedBody(w, r)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	stubs, err := config.ParseMappings(data, isYAMLRequest(r))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_mappings", err.Error())
		return
	}

	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	ids, err := h.ctrl.ImportStubs(stubs, replace)
	if err != nil {
		writeRegisterError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.log.Info("mappings imported", "count", len(ids), "replace", replace)
	httputil.WriteOK(w, ImportResponse{Imported: len(ids), IDs: ids})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter := parseRequestFilter(r)
	h.writeRequestList(w, h.ctrl.ListRequests(filter))
}

func (h *Handler) handleUnmatchedRequests(w http.ResponseWriter, r *http.Request) {
	filter := parseRequestFilter(r)
	filter.Unmatched = true
	h.writeRequestList(w, h.ctrl.ListRequests(filter))
}

func (h *Handler) writeRequestList(w http.ResponseWriter, entries []*requestlog.Entry) {
	if entries == nil {
		entries = []*requestlog.Entry{}
	}
	httputil.WriteOK(w, RequestListResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    h.ctrl.RequestCount(),
	})
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	entry := h.ctrl.GetRequest(r.PathValue("id"))
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", "request not found")
		return
	}
	httputil.WriteOK(w, entry)
}

func (h *Handler) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearRequests()
	httputil.WriteNoContent(w)
}

func (h *Handler) handleCountRequests(w http.ResponseWriter, r *http.Request) {
	limitedBody(w, r)
	var p stub.RequestPattern
	if err := decodeOptionalJSONBody(r, &p); err != nil {
		writeDecodeError(w, err)
		return
	}

	n, err := h.ctrl.CountRequests(&p)
	if err != nil {
		writeRegisterError(w, err)
		return
	}
	httputil.WriteOK(w, CountResponse{Count: n})
}

func (h *Handler) handleFindRequests(w http.ResponseWriter, r *http.Request) {
	limitedBody(w, r)
	var p stub.RequestPattern
	if err := decodeOptionalJSONBody(r, &p); err != nil {
		writeDecodeError(w, err)
		return
	}

	entries, err := h.ctrl.FindRequests(&p)
	if err != nil {
		writeRegisterError(w, err)
		return
	}
	h.writeRequestList(w, entries)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Reset(); err != nil {
		h.log.Error("reset failed", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "reset_failed", err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFound(w, "not_found", "no admin route for "+r.Method+" "+r.URL.Path)
}

func parseRequestFilter(r *http.Request) *requestlog.Filter {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		Limit:  defaultListLimit,
		Method: q.Get("method"),
		Path:   q.Get("path"),
		StubID: q.Get("stubId"),
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if v := q.Get("unmatched"); v != "" {
		filter.Unmatched, _ = strconv.ParseBool(v)
	}
	return filter
}

func isYAMLRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return strings.Contains(mediaType, "yaml")
}

func limitedBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
}

func decodeJSONBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeOptionalJSONBody is decodeJSONBody but accepts an empty body.
func decodeOptionalJSONBody(r *http.Request, v any) error {
	if err := decodeJSONBody(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	httputil.WriteBadRequest(w, "invalid_json", "invalid JSON in request body: "+err.Error())
}

func writeRegisterError(w http.ResponseWriter, err error) {
	if errors.Is(err, stub.ErrInvalidPredicate) {
		httputil.WriteBadRequest(w, "invalid_mapping", err.Error())
		return
	}
	httputil.WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
