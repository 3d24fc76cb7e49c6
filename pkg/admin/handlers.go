package admin

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/getmockd/msm/pkg/calllog"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/httputil"
	"github.com/getmockd/msm/pkg/override"
)

const maxRequestBody = 1 << 20

// handleHealth handles GET /health.
func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Uptime: a.Uptime()})
}

// handleStatus handles GET /status.
func (a *API) handleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Recording: a.rt.Recording(),
		Calls:     a.rt.CallCount(),
		Overrides: a.rt.OverrideCount(),
	})
}

// handleAddOverride handles POST /overrides.
func (a *API) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", "Invalid JSON in request body")
		return
	}
	if req.Method == "" || req.Path == "" {
		httputil.WriteBadRequest(w, "invalid_request", "method and path are required")
		return
	}

	def, err := definitionSource(req.Definition)
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_definition", err.Error())
		return
	}

	register := a.rt.On
	if req.Once {
		register = a.rt.Once
	}
	if err := register(req.Method, req.Path, def); err != nil {
		code := "invalid_request"
		if errors.Is(err, definition.ErrMalformed) {
			code = "malformed_definition"
		}
		httputil.WriteBadRequest(w, code, err.Error())
		return
	}

	a.log.Info("override registered", "method", req.Method, "path", req.Path, "once", req.Once)
	httputil.WriteJSON(w, http.StatusCreated, OverrideResponse{Method: req.Method, Path: req.Path, Once: req.Once})
}

// definitionSource returns the definition text carried by raw: the string
// itself when raw is a JSON string, raw otherwise.
func definitionSource(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", errors.New("definition is required")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(trimmed), nil
}

// handleDeleteOverrides handles DELETE /overrides.
func (a *API) handleDeleteOverrides(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := a.rt.Off(q.Get("method"), q.Get("path")); err != nil {
		code := "invalid_request"
		if errors.Is(err, override.ErrUsage) {
			code = "usage"
		}
		httputil.WriteBadRequest(w, code, err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

// handleListCalls handles GET /calls.
func (a *API) handleListCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := calllog.Filter{Method: q.Get("method")}

	pathname, pattern := q.Get("pathname"), q.Get("regexp")
	switch {
	case pathname != "" && pattern != "":
		httputil.WriteBadRequest(w, "invalid_request", "use either pathname or regexp, not both")
		return
	case pathname != "":
		f.Pathname = calllog.Prefix(pathname)
	case pattern != "":
		re, err := regexp.Compile(pattern)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_regexp", err.Error())
			return
		}
		f.Pathname = calllog.Regexp(re)
	}

	if bp := q.Get("bodyPath"); bp != "" {
		m, err := calllog.JSONPath(bp)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_body_path", err.Error())
			return
		}
		f.Body = m
	}

	httputil.WriteJSON(w, http.StatusOK, a.rt.Called(f))
}

// handleStartRecording handles POST /recording.
func (a *API) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	bypass := false
	if v := r.URL.Query().Get("bypass"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteBadRequest(w, "invalid_request", "bypass must be a boolean")
			return
		}
		bypass = b
	}

	if err := a.rt.Record(bypass); err != nil {
		httputil.WriteConflict(w, "recording_state", err.Error())
		return
	}
	httputil.WriteNoContent(w)
}

// handleStopRecording handles DELETE /recording.
func (a *API) handleStopRecording(w http.ResponseWriter, _ *http.Request) {
	a.rt.StopRecording()
	httputil.WriteNoContent(w)
}

// handleFlush handles POST /flush.
func (a *API) handleFlush(w http.ResponseWriter, _ *http.Request) {
	a.rt.Flush()
	httputil.WriteNoContent(w)
}
