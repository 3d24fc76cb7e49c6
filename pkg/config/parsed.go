package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/getmockd/msm/pkg/logging"
)

// ErrInvalidConfig is returned when an option has an unusable value.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default option values.
const (
	DefaultAPIDir  = "stubapi"
	DefaultNonChar = "-"
)

// DefaultAPIPrefixes returns the prefixes handled when none are configured.
func DefaultAPIPrefixes() []string { return []string{"/api/"} }

// Parsed is the fully resolved configuration. Do not modify it after Parse
// returns; components share the same snapshot.
type Parsed struct {
	Root              string
	APIDir            string
	APIPrefixes       []string
	NonChar           string
	LowerCase         bool
	Ping              time.Duration
	IgnoreQueries     QueryPolicy
	FallbackToNoQuery bool
	OverwriteMode     bool
	SaveHeaders       []string
	LogLevel          logging.Level
	LogFormat         logging.Format
}

// Parse merges cfg over the defaults and validates the result.
func Parse(cfg Config) (*Parsed, error) {
	p := &Parsed{
		APIDir:            DefaultAPIDir,
		APIPrefixes:       DefaultAPIPrefixes(),
		NonChar:           DefaultNonChar,
		FallbackToNoQuery: true,
		LogLevel:          logging.LevelNone,
		LogFormat:         logging.FormatText,
	}

	if cfg.Root != "" {
		p.Root = cfg.Root
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		p.Root = wd
	}
	if cfg.APIDir != "" {
		p.APIDir = cfg.APIDir
	}
	if len(cfg.APIPrefixes) > 0 {
		p.APIPrefixes = slices.Clone(cfg.APIPrefixes)
	}
	if cfg.NonChar != nil {
		p.NonChar = *cfg.NonChar
	}
	if cfg.LowerCase != nil {
		p.LowerCase = *cfg.LowerCase
	}
	if cfg.Ping != nil {
		p.Ping = cfg.Ping.Std()
	}
	if cfg.IgnoreQueries != nil {
		p.IgnoreQueries = QueryPolicy{all: cfg.IgnoreQueries.all, names: slices.Clone(cfg.IgnoreQueries.names)}
	}
	if cfg.FallbackToNoQuery != nil {
		p.FallbackToNoQuery = *cfg.FallbackToNoQuery
	}
	if cfg.OverwriteMode != nil {
		p.OverwriteMode = *cfg.OverwriteMode
	}
	if len(cfg.SaveHeaders) > 0 {
		p.SaveHeaders = slices.Clone(cfg.SaveHeaders)
	}
	if cfg.LogLevel != "" {
		p.LogLevel = logging.ParseLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		p.LogFormat = logging.ParseFormat(cfg.LogFormat)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level defaults.
func MustParse(cfg Config) *Parsed {
	p, err := Parse(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Parsed) validate() error {
	if p.Ping < 0 {
		return fmt.Errorf("%w: ping must not be negative", ErrInvalidConfig)
	}
	if strings.ContainsAny(p.NonChar, `/\.`) {
		return fmt.Errorf("%w: nonChar %q must not contain path separators or dots", ErrInvalidConfig, p.NonChar)
	}
	if filepath.IsAbs(p.APIDir) {
		return fmt.Errorf("%w: apiDir %q must be relative to the root", ErrInvalidConfig, p.APIDir)
	}
	for _, prefix := range p.APIPrefixes {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("%w: api prefix %q must start with '/'", ErrInvalidConfig, prefix)
		}
	}
	return nil
}

// APIRoot is the absolute directory holding the definition files.
func (p *Parsed) APIRoot() string {
	return filepath.Join(p.Root, p.APIDir)
}

// MatchesPrefix reports whether a request path is handled by the middleware.
func (p *Parsed) MatchesPrefix(pathname string) bool {
	for _, prefix := range p.APIPrefixes {
		if strings.HasPrefix(pathname, prefix) {
			return true
		}
	}
	return false
}

// WithoutQuery returns a copy that drops every query parameter.
func (p *Parsed) WithoutQuery() *Parsed {
	cp := *p
	cp.IgnoreQueries = QueryPolicy{all: true}
	return &cp
}

// NewLogger builds the logger described by LogLevel and LogFormat.
func (p *Parsed) NewLogger(out io.Writer) *slog.Logger {
	return logging.New(logging.Config{
		Level:  p.LogLevel,
		Format: p.LogFormat,
		Output: out,
	})
}

// Log writes every resolved option at info level.
func (p *Parsed) Log(logger *slog.Logger) {
	logger.Info("configuration",
		"root", p.Root,
		"apiDir", p.APIDir,
		"apiPrefixes", strings.Join(p.APIPrefixes, ","),
		"ignoreQueries", p.IgnoreQueries.String(),
		"fallbackToNoQuery", p.FallbackToNoQuery,
		"logLevel", logging.LevelName(p.LogLevel),
		"lowerCase", p.LowerCase,
		"nonChar", p.NonChar,
		"overwriteMode", p.OverwriteMode,
		"ping", p.Ping,
		"saveHeaders", strings.Join(p.SaveHeaders, ","),
	)
}

// Merge layers src over dst: every option set in src replaces the one in dst.
func Merge(dst, src Config) Config {
	if src.Root != "" {
		dst.Root = src.Root
	}
	if src.APIDir != "" {
		dst.APIDir = src.APIDir
	}
	if len(src.APIPrefixes) > 0 {
		dst.APIPrefixes = src.APIPrefixes
	}
	if src.NonChar != nil {
		dst.NonChar = src.NonChar
	}
	if src.LowerCase != nil {
		dst.LowerCase = src.LowerCase
	}
	if src.Ping != nil {
		dst.Ping = src.Ping
	}
	if src.IgnoreQueries != nil {
		dst.IgnoreQueries = src.IgnoreQueries
	}
	if src.FallbackToNoQuery != nil {
		dst.FallbackToNoQuery = src.FallbackToNoQuery
	}
	if src.OverwriteMode != nil {
		dst.OverwriteMode = src.OverwriteMode
	}
	if len(src.SaveHeaders) > 0 {
		dst.SaveHeaders = src.SaveHeaders
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	return dst
}
