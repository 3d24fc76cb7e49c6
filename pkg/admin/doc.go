// Package admin exposes a mock server's runtime API over HTTP, so tests
// written in any language can steer it.
//
// Endpoints, relative to the mount prefix (default /__msm):
//
//	GET    /health      - Health check
//	GET    /status      - Recording flag, call and override counts
//	POST   /overrides   - Register an override (on, or once with "once": true)
//	DELETE /overrides   - Remove one override (?method=&path=) or all
//	GET    /calls       - List logged calls (?pathname=|regexp=, method=, bodyPath=)
//	POST   /recording   - Start recording (?bypass=true skips the flush check)
//	DELETE /recording   - Stop recording, keep the log
//	POST   /flush       - Stop recording and clear the log
//
// Usage:
//
//	srv, _ := msm.New(cfg)
//	api := admin.New(srv)
//	http.ListenAndServe(":8080", api.Middleware(srv.Handler()))
package admin
