package admin

import "encoding/json"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Recording bool `json:"recording"`
	Calls     int  `json:"calls"`
	Overrides int  `json:"overrides"`
}

// OverrideRequest is the body of POST /overrides. Definition is either a
// JSON definition object or a string holding one (comments allowed).
type OverrideRequest struct {
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	Once       bool            `json:"once,omitempty"`
	Definition json.RawMessage `json:"definition"`
}

// OverrideResponse is returned by POST /overrides.
type OverrideResponse struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Once   bool   `json:"once"`
}
