package msm

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getmockd/msm/pkg/calllog"
	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/definition/script"
	"github.com/getmockd/msm/pkg/modpath"
	"github.com/getmockd/msm/pkg/override"
	"github.com/getmockd/msm/pkg/recorder"
)

// Marker header set on every response the mock server answers.
const (
	MarkerHeader  = recorder.MarkerHeader
	MarkerStubAPI = "stubapi"
)

// Server is a mock server instance with its own overrides and call log.
type Server struct {
	cfg    *config.Parsed
	logger *slog.Logger
	loader *definition.Loader

	overrides *override.Store
	calls     *calllog.Log
}

type options struct {
	logger        *slog.Logger
	logOutput     io.Writer
	codeLoader    definition.CodeLoader
	codeLoaderSet bool
}

// Option configures a Server.
type Option func(*options)

// WithLogger replaces the logger built from the configured log level and
// format.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLogOutput sets where the configured logger writes. Defaults to
// os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithCodeLoader replaces the loader for code-form definitions. The
// default loads .expr scripts; nil disables code definitions.
func WithCodeLoader(c definition.CodeLoader) Option {
	return func(o *options) {
		o.codeLoader = c
		o.codeLoaderSet = true
	}
}

// New parses cfg and creates a Server.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	parsed, err := config.Parse(cfg)
	if err != nil {
		return nil, err
	}
	return NewFromParsed(parsed, opts...), nil
}

// NewFromParsed creates a Server from an already parsed configuration.
func NewFromParsed(cfg *config.Parsed, opts ...Option) *Server {
	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = cfg.NewLogger(o.logOutput)
	}

	code := o.codeLoader
	if !o.codeLoaderSet {
		code = script.New(logger)
	}
	loaderOpts := []definition.LoaderOption{definition.WithLogger(logger)}
	if code != nil {
		loaderOpts = append(loaderOpts, definition.WithCodeLoader(code))
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		loader: definition.NewLoader(loaderOpts...),
		calls:  calllog.New(logger),
	}
	s.overrides = override.NewStore(s.key, logger)

	logger.Warn("msm middleware initialized")
	cfg.Log(logger)
	return s
}

func (s *Server) key(method, url string) (string, error) {
	return modpath.ComposeURL(method, url, s.cfg)
}

// Config returns the resolved configuration.
func (s *Server) Config() *config.Parsed { return s.cfg }

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Middleware serves mocks for requests under the API prefixes and passes
// every other request to next.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.MatchesPrefix(r.URL.Path) {
			s.logger.Debug("not hit", "method", r.Method, "path", r.URL.RequestURI())
			next.ServeHTTP(w, r)
			return
		}
		s.serve(w, r)
	})
}

// Handler serves mocks under the API prefixes and a plain 404 elsewhere.
func (s *Server) Handler() http.Handler {
	return s.Middleware(http.NotFoundHandler())
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("request", "method", r.Method, "path", r.URL.RequestURI())

	if s.calls.Recording() {
		s.calls.Append(calllog.EntryFromRequest(r))
	}

	w.Header().Set(MarkerHeader, MarkerStubAPI)

	// The delay runs while the definition is resolved.
	var delay <-chan time.Time
	if s.cfg.Ping > 0 {
		timer := time.NewTimer(s.cfg.Ping)
		defer timer.Stop()
		delay = timer.C
	}

	res := s.Resolve(r)

	if delay != nil {
		select {
		case <-delay:
		case <-r.Context().Done():
			s.logger.Debug("request cancelled during ping", "path", r.URL.RequestURI())
			return
		}
	}

	res.Handler.ServeHTTP(w, r)
}

// Recorder returns a recorder middleware sharing the server's
// configuration, logger and definition loader.
func (s *Server) Recorder(opts ...recorder.Option) *recorder.Recorder {
	base := []recorder.Option{
		recorder.WithLogger(s.logger),
		recorder.WithLoader(s.loader),
	}
	return recorder.New(s.cfg, append(base, opts...)...)
}
