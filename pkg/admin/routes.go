// Route registration for the admin API.

package admin

import "net/http"

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	// Health check and status
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /status", a.handleStatus)

	// Overrides
	mux.HandleFunc("POST /overrides", a.handleAddOverride)
	mux.HandleFunc("DELETE /overrides", a.handleDeleteOverrides)

	// Call log
	mux.HandleFunc("GET /calls", a.handleListCalls)
	mux.HandleFunc("POST /recording", a.handleStartRecording)
	mux.HandleFunc("DELETE /recording", a.handleStopRecording)
	mux.HandleFunc("POST /flush", a.handleFlush)
}
