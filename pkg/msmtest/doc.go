// Package msmtest runs an msm mock server inside Go tests.
//
// The server is served by net/http/httptest and torn down when the test
// finishes: overrides are cleared, the call log is flushed and the listener
// is closed.
//
// # Basic Usage
//
//	func TestClient(t *testing.T) {
//	    mock := msmtest.New(t, config.Config{Root: "testdata"})
//
//	    mock.Mock("GET", "/api/users/1").
//	        WithStatus(200).
//	        WithBody(map[string]any{"id": 1}).
//	        Reply()
//
//	    mock.Record()
//	    resp, err := http.Get(mock.URL() + "/api/users/1")
//	    // ...
//	    mock.AssertCalled("GET", "/api/users/1")
//	}
//
// Definitions under Root/{apiDir} are served as usual; Mock registers
// in-memory overrides on top of them.
package msmtest
