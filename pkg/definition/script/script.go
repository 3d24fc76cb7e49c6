// Package script loads code-form definitions: files holding a single
// expr-lang expression evaluated against the incoming request.
//
// A script sees the variables method, path, query, headers and body and
// must evaluate to a map shaped like a JSON definition:
//
//	{"code": 201, "headers": {"X-Id": "7"}, "body": {"echo": body}}
//
// Scripts are read and compiled on every load, so edits take effect on
// the next request.
package script

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/httputil"
	"github.com/getmockd/msm/pkg/logging"
)

// Ext is the file extension of script definitions.
const Ext = ".expr"

// Loader implements definition.CodeLoader for expr scripts.
type Loader struct {
	logger *slog.Logger
}

// New creates a script Loader. A nil logger disables logging.
func New(logger *slog.Logger) *Loader {
	return &Loader{logger: logging.OrNop(logger)}
}

var _ definition.CodeLoader = (*Loader)(nil)

// LoadCode reads and compiles basePath + ".expr".
func (l *Loader) LoadCode(basePath string) (*definition.Resolved, error) {
	path := basePath + Ext
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, definition.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	program, err := Compile(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	h := &handler{program: program, path: path, logger: l.logger}
	return &definition.Resolved{
		Definition: definition.FromHandler(h),
		Path:       path,
		Format:     definition.FormatCode,
	}, nil
}

// Compile compiles a script source. Scripts whose result is statically
// known not to be a map are rejected with definition.ErrUnrecognizedExport.
func Compile(src string) (*vm.Program, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty script", definition.ErrUnrecognizedExport)
	}
	program, err := expr.Compile(src, expr.AsKind(reflect.Map))
	if err != nil {
		if strings.Contains(err.Error(), "expected map") {
			return nil, fmt.Errorf("%w: %v", definition.ErrUnrecognizedExport, err)
		}
		return nil, fmt.Errorf("%w: %v", definition.ErrMalformed, err)
	}
	return program, nil
}

// Eval runs a compiled script against r and converts the result.
func Eval(program *vm.Program, r *http.Request) (definition.JSONDefinition, error) {
	vars, err := requestEnv(r)
	if err != nil {
		return definition.JSONDefinition{}, err
	}

	out, err := expr.Run(program, vars)
	if err != nil {
		return definition.JSONDefinition{}, fmt.Errorf("eval: %w", err)
	}

	j, err := definition.FromValue(normalize(out))
	if err != nil {
		return definition.JSONDefinition{}, fmt.Errorf("%w: %v", definition.ErrUnrecognizedExport, err)
	}
	return j, nil
}

type handler struct {
	program *vm.Program
	path    string
	logger  *slog.Logger
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	j, err := Eval(h.program, r)
	if err != nil {
		h.logger.Warn("script definition failed", "path", h.path, "error", err)
		httputil.WriteInternalError(w, "script_failed", err.Error())
		return
	}
	definition.Convert(j).ServeHTTP(w, r)
}

func requestEnv(r *http.Request) (map[string]any, error) {
	query := make(map[string]any)
	for name, values := range r.URL.Query() {
		if len(values) == 1 {
			query[name] = values[0]
		} else {
			query[name] = values
		}
	}

	headers := make(map[string]any, len(r.Header))
	for name := range r.Header {
		headers[strings.ToLower(name)] = r.Header.Get(name)
	}

	data, _, err := httputil.ReadBody(r, httputil.DefaultMaxBodySize)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	return map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"query":   query,
		"headers": headers,
		"body":    httputil.DecodeBody(r.Header.Get("Content-Type"), data),
	}, nil
}

// normalize turns the map types expr produces into map[string]any so the
// result can be read as a JSON definition.
func normalize(v any) any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return v
	}
}
