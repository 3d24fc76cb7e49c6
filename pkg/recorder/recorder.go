// Package recorder turns real responses into definition files. It wraps a
// handler that produces real responses (usually a reverse proxy) and, after
// each response for a handled prefix, writes {code, headers, body} to the
// JSON file the mock server would look up for the same request.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/decompress"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/httputil"
	"github.com/getmockd/msm/pkg/logging"
	"github.com/getmockd/msm/pkg/modpath"
)

// Marker header set on every response passing through the recorder.
const (
	MarkerHeader = "X-Mock-Server-Middleware"
	MarkerValue  = "recorder"
)

// Reasons a response is not saved. They are returned by Save but are not
// failures.
var (
	ErrDefinitionExists = errors.New("definition already exists")
	ErrNotFoundStatus   = errors.New("response status is 404")
	ErrTruncated        = errors.New("response body exceeds the capture limit")
	ErrNotRecordable    = errors.New("response was not produced by the upstream")
)

// Response is a captured response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// Truncated is set when Body holds only part of the response.
	Truncated bool
	// NotRecordable is set when the wrapped handler answered in place of
	// the upstream, see Skip.
	NotRecordable bool
}

type skipKey struct{}

// Skip marks the response to r as not recordable. Handlers behind
// Middleware call it when they answer on behalf of the upstream, such as a
// proxy reporting an unreachable backend.
func Skip(r *http.Request) {
	if skip, ok := r.Context().Value(skipKey{}).(*atomic.Bool); ok {
		skip.Store(true)
	}
}

// file is the on-disk shape. Headers is always written, even when empty.
type file struct {
	Code    int                `json:"code"`
	Headers map[string]*string `json:"headers"`
	Body    any                `json:"body"`
}

// Recorder saves responses as definition files.
type Recorder struct {
	cfg     *config.Parsed
	loader  *definition.Loader
	logger  *slog.Logger
	maxBody int

	wg sync.WaitGroup
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) { r.logger = logging.OrNop(logger) }
}

// WithLoader sets the loader used to detect existing definitions. It
// should resolve the same formats the mock server serves.
func WithLoader(l *definition.Loader) Option {
	return func(r *Recorder) { r.loader = l }
}

// WithMaxBodySize limits how much of a response body is captured.
// Responses above the limit are passed through but not saved.
func WithMaxBodySize(n int) Option {
	return func(r *Recorder) { r.maxBody = n }
}

// New creates a Recorder for cfg.
func New(cfg *config.Parsed, opts ...Option) *Recorder {
	r := &Recorder{
		cfg:     cfg,
		loader:  definition.NewLoader(),
		logger:  logging.Nop(),
		maxBody: httputil.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Middleware records the responses next produces for requests under the
// configured API prefixes. Saving happens in the background after the
// response is complete; call Wait to block until pending saves finish.
func (rec *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rec.cfg.MatchesPrefix(r.URL.Path) {
			rec.logger.Debug("not hit", "method", r.Method, "path", r.URL.RequestURI())
			next.ServeHTTP(w, r)
			return
		}

		req := modpath.Request{Method: r.Method, Pathname: r.URL.EscapedPath(), Search: r.URL.RawQuery}
		rec.logger.Info("recording", "method", r.Method, "path", r.URL.RequestURI())

		skip := new(atomic.Bool)
		r = r.WithContext(context.WithValue(r.Context(), skipKey{}, skip))

		w.Header().Set(MarkerHeader, MarkerValue)
		cw := httputil.NewCaptureWriter(w, rec.maxBody)
		next.ServeHTTP(cw, r)

		resp := Response{
			Status:        cw.StatusCode(),
			Header:        cw.ResponseHeader(),
			Body:          bytes.Clone(cw.Body()),
			Truncated:     cw.Truncated(),
			NotRecordable: skip.Load(),
		}

		rec.wg.Add(1)
		go func() {
			defer rec.wg.Done()
			rec.save(req, resp)
		}()
	})
}

// Wait blocks until every save started by Middleware has finished.
func (rec *Recorder) Wait() {
	rec.wg.Wait()
}

func (rec *Recorder) save(req modpath.Request, resp Response) {
	path, err := rec.Save(req, resp)
	switch {
	case err == nil:
		rec.logger.Info("definition saved", "path", path)
	case errors.Is(err, ErrDefinitionExists):
		rec.logger.Info("definition exists, skipping", "path", path)
	case errors.Is(err, ErrNotFoundStatus), errors.Is(err, ErrTruncated), errors.Is(err, ErrNotRecordable):
		rec.logger.Warn("not saving response", "path", path, "reason", err)
	default:
		rec.logger.Error("failed to save definition", "path", path, "error", err)
	}
}

// Save writes resp as the definition file for req and returns the file
// path. A response is skipped, with ErrDefinitionExists, when a definition
// already resolves for req (unless OverwriteMode is set), and with
// ErrNotFoundStatus when its status is 404. Responses marked with Skip are
// never saved (ErrNotRecordable).
func (rec *Recorder) Save(req modpath.Request, resp Response) (string, error) {
	base, err := modpath.Compose(req, rec.cfg)
	if err != nil {
		return "", err
	}
	path := base + ".json"

	if resp.NotRecordable {
		return path, ErrNotRecordable
	}

	if !rec.cfg.OverwriteMode {
		if existing, err := rec.loader.Load(base); err == nil {
			return existing.Path, ErrDefinitionExists
		}
	}
	if resp.Status == http.StatusNotFound {
		return path, ErrNotFoundStatus
	}
	if resp.Truncated {
		return path, ErrTruncated
	}

	rec.logger.Debug("response headers", "path", path, "headers", resp.Header)

	body := decompress.Body(resp.Body, resp.Header, rec.logger)
	data, err := definition.Encode(file{
		Code:    resp.Status,
		Headers: PickHeaders(resp.Header, rec.cfg.SaveHeaders),
		Body:    ParseBody(resp.Header.Get("Content-Type"), body),
	})
	if err != nil {
		return path, fmt.Errorf("encode definition: %w", err)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return path, err
	}
	return path, nil
}

// PickHeaders returns the allow-listed headers present in h, keyed by the
// name as written in the allow-list. Content-Encoding and Content-Length
// describe the wire body and are never kept, since the saved body is
// decoded.
func PickHeaders(h http.Header, allow []string) map[string]*string {
	out := make(map[string]*string)
	for _, name := range allow {
		if strings.EqualFold(name, "Content-Encoding") || strings.EqualFold(name, "Content-Length") {
			continue
		}
		values := h.Values(name)
		if len(values) == 0 {
			continue
		}
		v := strings.Join(values, ", ")
		out[name] = &v
	}
	return out
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
