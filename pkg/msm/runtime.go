package msm

import "github.com/getmockd/msm/pkg/calllog"

// On registers def for every request to method and url until Off removes
// it. def is a JSON string, a definition.JSONDefinition, a decoded JSON
// object with a "body" key, an http.Handler or a handler function.
func (s *Server) On(method, url string, def any) error {
	return s.overrides.On(method, url, def)
}

// Once registers def for the next request to method and url only.
func (s *Server) Once(method, url string, def any) error {
	return s.overrides.Once(method, url, def)
}

// Off removes the override for method and url, or every override when both
// are empty. Giving only one returns override.ErrUsage.
func (s *Server) Off(method, url string) error {
	return s.overrides.Off(method, url)
}

// OverrideCount returns the number of active overrides.
func (s *Server) OverrideCount() int {
	return s.overrides.Len()
}

// Record starts logging handled requests. See calllog.Log.Record.
func (s *Server) Record(bypass bool) error {
	return s.calls.Record(bypass)
}

// StopRecording stops logging requests and keeps the log.
func (s *Server) StopRecording() {
	s.calls.StopRecording()
}

// Flush stops logging requests and empties the log.
func (s *Server) Flush() {
	s.calls.Flush()
}

// Recording reports whether requests are being logged.
func (s *Server) Recording() bool {
	return s.calls.Recording()
}

// Called returns the logged requests matching f.
func (s *Server) Called(f calllog.Filter) []calllog.Entry {
	return s.calls.Called(f)
}

// CallCount returns the number of logged requests.
func (s *Server) CallCount() int {
	return s.calls.Len()
}
