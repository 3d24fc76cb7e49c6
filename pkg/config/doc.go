// Package config holds the options of the mock server middleware.
//
// Config is the partial, user-supplied option set: every zero or nil field
// means "not given". Parse merges a Config over the built-in defaults and
// returns a Parsed snapshot that is treated as immutable for the lifetime of
// the middleware instance.
//
// Options can come from code, from a YAML or JSON file (LoadFile), and from
// MSM_* environment variables (ApplyEnv). Merge layers them.
package config
