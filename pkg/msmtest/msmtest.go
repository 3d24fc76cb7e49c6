package msmtest

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/getmockd/msm/pkg/admin"
	"github.com/getmockd/msm/pkg/calllog"
	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/msm"
)

// Server is a mock server bound to a test.
type Server struct {
	t       testing.TB
	srv     *msm.Server
	httpSrv *httptest.Server
}

// New starts a mock server for cfg. A zero Root defaults to t.TempDir().
// The admin API is mounted under admin.DefaultPrefix.
func New(t testing.TB, cfg config.Config, opts ...msm.Option) *Server {
	t.Helper()

	if cfg.Root == "" {
		cfg.Root = t.TempDir()
	}
	srv, err := msm.New(cfg, opts...)
	if err != nil {
		t.Fatalf("msmtest: %v", err)
	}

	s := &Server{t: t, srv: srv}
	s.httpSrv = httptest.NewServer(admin.New(srv).Middleware(srv.Handler()))
	t.Cleanup(s.Close)
	return s
}

// Close stops the listener, clears overrides and flushes the call log.
// It is registered with t.Cleanup and safe to call more than once.
func (s *Server) Close() {
	s.httpSrv.Close()
	_ = s.srv.Off("", "")
	s.srv.StopRecording()
	s.srv.Flush()
}

// URL returns the base URL of the server.
func (s *Server) URL() string { return s.httpSrv.URL }

// Client returns an http.Client for the server.
func (s *Server) Client() *http.Client { return s.httpSrv.Client() }

// Server returns the underlying msm.Server.
func (s *Server) Server() *msm.Server { return s.srv }

// On registers a persistent override and fails the test on error.
func (s *Server) On(method, url string, def any) {
	s.t.Helper()
	if err := s.srv.On(method, url, def); err != nil {
		s.t.Fatalf("msmtest: on %s %s: %v", method, url, err)
	}
}

// Once registers a one-shot override and fails the test on error.
func (s *Server) Once(method, url string, def any) {
	s.t.Helper()
	if err := s.srv.Once(method, url, def); err != nil {
		s.t.Fatalf("msmtest: once %s %s: %v", method, url, err)
	}
}

// Off removes one override, or all of them when both arguments are empty.
func (s *Server) Off(method, url string) {
	s.t.Helper()
	if err := s.srv.Off(method, url); err != nil {
		s.t.Fatalf("msmtest: off %s %s: %v", method, url, err)
	}
}

// Record starts recording calls, bypassing the unflushed-log check.
// It fails the test when recording is already on.
func (s *Server) Record() {
	s.t.Helper()
	if err := s.srv.Record(true); err != nil {
		s.t.Fatalf("msmtest: %v", err)
	}
}

// StopRecording stops recording calls.
func (s *Server) StopRecording() { s.srv.StopRecording() }

// Flush empties the call log.
func (s *Server) Flush() { s.srv.Flush() }

// Calls returns the recorded calls to method whose pathname starts with
// prefix. Empty arguments match everything.
func (s *Server) Calls(method, prefix string) []calllog.Entry {
	f := calllog.Filter{Method: method}
	if prefix != "" {
		f.Pathname = calllog.Prefix(prefix)
	}
	return s.srv.Called(f)
}

// CallsMatching returns the recorded calls whose pathname matches re from
// its first character.
func (s *Server) CallsMatching(method string, re *regexp.Regexp) []calllog.Entry {
	return s.srv.Called(calllog.Filter{Method: method, Pathname: calllog.Regexp(re)})
}

// AssertCalled asserts that at least one recorded call matches.
func (s *Server) AssertCalled(method, prefix string) {
	s.t.Helper()
	if len(s.Calls(method, prefix)) == 0 {
		s.t.Errorf("expected %s %s to be called, but it was not called", method, prefix)
	}
}

// AssertCalledTimes asserts that exactly n recorded calls match.
func (s *Server) AssertCalledTimes(method, prefix string, n int) {
	s.t.Helper()
	if got := len(s.Calls(method, prefix)); got != n {
		s.t.Errorf("expected %s %s to be called %d times, but was called %d times", method, prefix, n, got)
	}
}

// AssertNotCalled asserts that no recorded call matches.
func (s *Server) AssertNotCalled(method, prefix string) {
	s.t.Helper()
	if got := len(s.Calls(method, prefix)); got > 0 {
		s.t.Errorf("expected %s %s to not be called, but it was called %d times", method, prefix, got)
	}
}
