// Package flags binds the mock server options to command-line flags.
package flags

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/getmockd/msm/pkg/config"
)

// Flag names.
const (
	Root              = "root"
	APIDir            = "api-dir"
	APIPrefix         = "api-prefix"
	NonChar           = "non-char"
	LowerCase         = "lower-case"
	Ping              = "ping"
	IgnoreQueries     = "ignore-queries"
	FallbackToNoQuery = "fallback-to-no-query"
	Overwrite         = "overwrite"
	SaveHeader        = "save-header"
	LogLevel          = "log-level"
	LogFormat         = "log-format"
)

// Options holds the flag values for every config.Config field.
type Options struct {
	root              string
	apiDir            string
	apiPrefixes       []string
	nonChar           string
	lowerCase         bool
	ping              time.Duration
	ignoreQueries     string
	fallbackToNoQuery bool
	overwrite         bool
	saveHeaders       []string
	logLevel          string
	logFormat         string
}

// Register defines the option flags on fs.
func (o *Options) Register(fs *pflag.FlagSet) {
	fs.StringVar(&o.root, Root, "", "Directory the API directory is resolved against (default: working directory)")
	fs.StringVar(&o.apiDir, APIDir, "", "Directory holding definition files, relative to --root (default: stubapi)")
	fs.StringSliceVar(&o.apiPrefixes, APIPrefix, nil, "Path prefix handled by the mock server, repeatable (default: /api/)")
	fs.StringVar(&o.nonChar, NonChar, "", "Replacement for characters outside [A-Za-z0-9/] (default: -)")
	fs.BoolVar(&o.lowerCase, LowerCase, false, "Fold pathname and query to lower case")
	fs.DurationVar(&o.ping, Ping, 0, "Delay every mocked response")
	fs.StringVar(&o.ignoreQueries, IgnoreQueries, "", "true, false or a comma-separated list of query names to ignore")
	fs.BoolVar(&o.fallbackToNoQuery, FallbackToNoQuery, true, "Retry without the query when a query-specific definition is missing")
	fs.BoolVar(&o.overwrite, Overwrite, false, "Let the recorder replace existing definition files")
	fs.StringSliceVar(&o.saveHeaders, SaveHeader, nil, "Response header the recorder keeps, repeatable")
	fs.StringVar(&o.logLevel, LogLevel, "", "DEBUG, INFO, LOG, WARN, ERROR or NONE (default: NONE)")
	fs.StringVar(&o.logFormat, LogFormat, "", "text or json (default: text)")
}

// Apply copies the flags explicitly set on fs into cfg.
func (o *Options) Apply(fs *pflag.FlagSet, cfg *config.Config) error {
	changed := fs.Changed

	if changed(Root) {
		cfg.Root = o.root
	}
	if changed(APIDir) {
		cfg.APIDir = o.apiDir
	}
	if changed(APIPrefix) {
		if len(o.apiPrefixes) == 0 {
			return fmt.Errorf("%w: --%s needs at least one prefix", config.ErrInvalidConfig, APIPrefix)
		}
		cfg.APIPrefixes = o.apiPrefixes
	}
	if changed(NonChar) {
		cfg.NonChar = config.String(o.nonChar)
	}
	if changed(LowerCase) {
		cfg.LowerCase = config.Bool(o.lowerCase)
	}
	if changed(Ping) {
		d := config.Duration(o.ping)
		cfg.Ping = &d
	}
	if changed(IgnoreQueries) {
		cfg.IgnoreQueries = config.ParseQueryPolicy(o.ignoreQueries)
	}
	if changed(FallbackToNoQuery) {
		cfg.FallbackToNoQuery = config.Bool(o.fallbackToNoQuery)
	}
	if changed(Overwrite) {
		cfg.OverwriteMode = config.Bool(o.overwrite)
	}
	if changed(SaveHeader) {
		cfg.SaveHeaders = o.saveHeaders
	}
	if changed(LogLevel) {
		cfg.LogLevel = o.logLevel
	}
	if changed(LogFormat) {
		cfg.LogFormat = o.logFormat
	}
	return nil
}
