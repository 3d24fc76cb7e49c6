package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/getmockd/msm/pkg/logging"
)

// Format names the on-disk form a definition was loaded from.
type Format string

// Definition file formats.
const (
	FormatJSON5 Format = "json5"
	FormatJSON  Format = "json"
	FormatCode  Format = "code"
)

// Resolved is a definition found on disk.
type Resolved struct {
	Definition Definition
	// Path is the file the definition was read from.
	Path   string
	Format Format
}

// Handler returns the handler serving the resolved definition.
func (r *Resolved) Handler() http.Handler {
	return r.Definition.Handler()
}

// CodeLoader loads an executable definition for a base path (without
// extension). Implementations must read the module from disk on every call
// and return ErrNotFound when no module exists.
type CodeLoader interface {
	LoadCode(basePath string) (*Resolved, error)
}

// CodeLoaderFunc adapts a function to CodeLoader.
type CodeLoaderFunc func(basePath string) (*Resolved, error)

// LoadCode calls f.
func (f CodeLoaderFunc) LoadCode(basePath string) (*Resolved, error) { return f(basePath) }

// Loader resolves definitions from the filesystem.
type Loader struct {
	logger *slog.Logger
	code   CodeLoader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logging.OrNop(logger) }
}

// WithCodeLoader enables code-module definitions, tried after every JSON
// candidate.
func WithCodeLoader(c CodeLoader) LoaderOption {
	return func(l *Loader) { l.code = c }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: logging.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type candidate struct {
	path   string
	format Format
}

// Candidates lists the files Load tries for basePath, in priority order.
// Code modules are not included.
func Candidates(basePath string) []string {
	cs := candidates(basePath)
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.path
	}
	return out
}

func candidates(basePath string) []candidate {
	return []candidate{
		{basePath + ".json5", FormatJSON5},
		{basePath + ".json", FormatJSON},
		{filepath.Join(basePath, "index.json5"), FormatJSON5},
		{filepath.Join(basePath, "index.json"), FormatJSON},
	}
}

// Load resolves the definition for basePath. The first candidate that
// loads wins. Missing files are skipped quietly; unreadable or malformed
// ones are logged as warnings and skipped. ErrNotFound is returned when no
// candidate succeeds.
func (l *Loader) Load(basePath string) (*Resolved, error) {
	for _, c := range candidates(basePath) {
		def, err := LoadFile(c.path, c.format)
		if err == nil {
			l.logger.Debug("loaded definition", "path", c.path, "format", c.format)
			return &Resolved{Definition: FromJSON(def), Path: c.path, Format: c.format}, nil
		}
		l.logFailure(c.path, err)
	}

	if l.code != nil {
		r, err := l.code.LoadCode(basePath)
		if err == nil {
			l.logger.Debug("loaded definition", "path", r.Path, "format", FormatCode)
			return r, nil
		}
		l.logFailure(basePath, err)
	}

	return nil, ErrNotFound
}

func (l *Loader) logFailure(path string, err error) {
	if errors.Is(err, ErrNotFound) {
		l.logger.Debug("definition file does not exist", "path", path)
		return
	}
	l.logger.Warn("failed to load definition", "path", path, "error", err)
}

// LoadFile reads a single definition file in the given format.
func LoadFile(path string, format Format) (JSONDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return JSONDefinition{}, ErrNotFound
		}
		return JSONDefinition{}, fmt.Errorf("read %s: %w", path, err)
	}

	switch format {
	case FormatJSON5:
		return DecodeJSON5(data)
	case FormatJSON:
		return DecodeJSON(jsonc.ToJSON(data))
	default:
		return JSONDefinition{}, fmt.Errorf("unsupported definition format %q", format)
	}
}

// DecodeJSON5 decodes a JSON5 document into a JSONDefinition.
func DecodeJSON5(data []byte) (JSONDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return JSONDefinition{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var v any
	if err := json5.Unmarshal(data, &v); err != nil {
		return JSONDefinition{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return FromValue(v)
}
