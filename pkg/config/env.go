package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names.
const (
	EnvAPIDir            = "MSM_API_DIR"
	EnvAPIPrefixes       = "MSM_API_PREFIXES"
	EnvNonChar           = "MSM_NON_CHAR"
	EnvLowerCase         = "MSM_LOWER_CASE"
	EnvPing              = "MSM_PING"
	EnvIgnoreQueries     = "MSM_IGNORE_QUERIES"
	EnvFallbackToNoQuery = "MSM_FALLBACK_TO_NO_QUERY"
	EnvOverwriteMode     = "MSM_OVERWRITE_MODE"
	EnvSaveHeaders       = "MSM_SAVE_HEADERS"
	EnvLogLevel          = "MSM_LOG_LEVEL"
)

// ApplyEnv sets the options present in the environment. List values are
// comma-separated.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIDir); ok && v != "" {
		cfg.APIDir = v
	}
	if v, ok := lookup(EnvAPIPrefixes); ok && v != "" {
		cfg.APIPrefixes = splitList(v)
	}
	if v, ok := lookup(EnvNonChar); ok {
		cfg.NonChar = String(v)
	}
	if v, ok := lookup(EnvPing); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvPing, err)
		}
		cfg.Ping = &d
	}
	if v, ok := lookup(EnvIgnoreQueries); ok && v != "" {
		cfg.IgnoreQueries = ParseQueryPolicy(v)
	}
	if v, ok := lookup(EnvSaveHeaders); ok && v != "" {
		cfg.SaveHeaders = splitList(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	bools := []struct {
		name string
		dst  **bool
	}{
		{EnvLowerCase, &cfg.LowerCase},
		{EnvFallbackToNoQuery, &cfg.FallbackToNoQuery},
		{EnvOverwriteMode, &cfg.OverwriteMode},
	}
	for _, b := range bools {
		v, ok := lookup(b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, b.name, v)
		}
		*b.dst = Bool(parsed)
	}
	return nil
}
