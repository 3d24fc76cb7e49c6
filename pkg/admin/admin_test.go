package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/msm/pkg/calllog"
	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/msm"
)

func setup(t *testing.T, opts ...Option) (*httptest.Server, *msm.Server) {
	t.Helper()
	srv, err := msm.New(config.Config{Root: t.TempDir()})
	require.NoError(t, err)

	ts := httptest.NewServer(New(srv, opts...).Middleware(srv.Handler()))
	t.Cleanup(ts.Close)
	return ts, srv
}

func call(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t)

	resp := call(t, http.MethodGet, ts.URL+"/__msm/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[HealthResponse](t, resp).Status)
}

func TestOverrides(t *testing.T) {
	t.Parallel()
	ts, srv := setup(t)

	resp := call(t, http.MethodPost, ts.URL+"/__msm/overrides",
		`{"method": "GET", "path": "/api/user/1", "once": true, "definition": {"code": 200, "body": "OK"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, OverrideResponse{Method: "GET", Path: "/api/user/1", Once: true}, decode[OverrideResponse](t, resp))
	assert.Equal(t, 1, srv.OverrideCount())

	first := call(t, http.MethodGet, ts.URL+"/api/user/1", "")
	assert.Equal(t, http.StatusOK, first.StatusCode)
	second := call(t, http.MethodGet, ts.URL+"/api/user/1", "")
	assert.Equal(t, http.StatusNotFound, second.StatusCode)
}

func TestOverrides_StringDefinition(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t)

	resp := call(t, http.MethodPost, ts.URL+"/__msm/overrides",
		`{"method": "GET", "path": "/api/x", "definition": "{\"body\": 1 /* one */}"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	got := call(t, http.MethodGet, ts.URL+"/api/x", "")
	data, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestOverrides_Errors(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"bad json", `{`, "invalid_json"},
		{"missing path", `{"method": "GET", "definition": {"body": 1}}`, "invalid_request"},
		{"missing definition", `{"method": "GET", "path": "/api/x"}`, "invalid_definition"},
		{"no body key", `{"method": "GET", "path": "/api/x", "definition": {"code": 200}}`, "malformed_definition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, http.MethodPost, ts.URL+"/__msm/overrides", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decode[map[string]string](t, resp)["error"])
		})
	}
}

func TestDeleteOverrides(t *testing.T) {
	t.Parallel()
	ts, srv := setup(t)

	require.NoError(t, srv.On("GET", "/api/a", `{"body": 1}`))
	require.NoError(t, srv.On("GET", "/api/b", `{"body": 2}`))

	resp := call(t, http.MethodDelete, ts.URL+"/__msm/overrides?method=GET&path=/api/a", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, srv.OverrideCount())

	resp = call(t, http.MethodDelete, ts.URL+"/__msm/overrides?method=GET", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "usage", decode[map[string]string](t, resp)["error"])

	resp = call(t, http.MethodDelete, ts.URL+"/__msm/overrides", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, srv.OverrideCount())
}

func TestRecordingLifecycle(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t)

	assert.Equal(t, http.StatusNoContent, call(t, http.MethodPost, ts.URL+"/__msm/recording", "").StatusCode)
	assert.Equal(t, http.StatusConflict, call(t, http.MethodPost, ts.URL+"/__msm/recording", "").StatusCode)

	call(t, http.MethodGet, ts.URL+"/api/user/1", "")
	call(t, http.MethodPost, ts.URL+"/api/user", `{"name": "neo"}`)
	call(t, http.MethodGet, ts.URL+"/api/items", "")

	status := decode[StatusResponse](t, call(t, http.MethodGet, ts.URL+"/__msm/status", ""))
	assert.Equal(t, StatusResponse{Recording: true, Calls: 3}, status)

	calls := decode[[]calllog.Entry](t, call(t, http.MethodGet, ts.URL+"/__msm/calls?pathname=/api/user", ""))
	assert.Len(t, calls, 2)

	calls = decode[[]calllog.Entry](t, call(t, http.MethodGet, ts.URL+"/__msm/calls?regexp=/api/i&method=get", ""))
	require.Len(t, calls, 1)
	assert.Equal(t, "/api/items", calls[0].Pathname)

	assert.Equal(t, http.StatusNoContent, call(t, http.MethodDelete, ts.URL+"/__msm/recording", "").StatusCode)
	assert.Equal(t, http.StatusConflict, call(t, http.MethodPost, ts.URL+"/__msm/recording", "").StatusCode)
	assert.Equal(t, http.StatusNoContent, call(t, http.MethodPost, ts.URL+"/__msm/recording?bypass=true", "").StatusCode)

	assert.Equal(t, http.StatusNoContent, call(t, http.MethodPost, ts.URL+"/__msm/flush", "").StatusCode)
	calls = decode[[]calllog.Entry](t, call(t, http.MethodGet, ts.URL+"/__msm/calls", ""))
	assert.Empty(t, calls)
}

func TestCalls_BodyPath(t *testing.T) {
	t.Parallel()
	ts, srv := setup(t)

	require.NoError(t, srv.Record(false))
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/user", strings.NewReader(`{"user": {"name": "neo"}}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	call(t, http.MethodPost, ts.URL+"/api/user", "plain")

	calls := decode[[]calllog.Entry](t, call(t, http.MethodGet, ts.URL+"/__msm/calls?bodyPath=$.user.name", ""))
	assert.Len(t, calls, 1)
}

func TestCalls_BadFilters(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t)

	for _, q := range []string{"regexp=(", "bodyPath=$[", "pathname=/a&regexp=b"} {
		resp := call(t, http.MethodGet, ts.URL+"/__msm/calls?"+q, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
	resp := call(t, http.MethodPost, ts.URL+"/__msm/recording?bypass=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCustomPrefixAndPassThrough(t *testing.T) {
	t.Parallel()
	ts, _ := setup(t, WithPrefix("control/"))

	assert.Equal(t, http.StatusOK, call(t, http.MethodGet, ts.URL+"/control/health", "").StatusCode)

	resp := call(t, http.MethodGet, ts.URL+"/api/anything", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msm.MarkerStubAPI, resp.Header.Get(msm.MarkerHeader))
}
