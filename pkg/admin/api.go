package admin

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/msm/pkg/calllog"
	"github.com/getmockd/msm/pkg/logging"
)

// DefaultPrefix is where the API is mounted unless WithPrefix says otherwise.
const DefaultPrefix = "/__msm"

// Runtime is the mock server surface the API drives.
type Runtime interface {
	On(method, url string, def any) error
	Once(method, url string, def any) error
	Off(method, url string) error
	OverrideCount() int

	Record(bypass bool) error
	StopRecording()
	Flush()
	Recording() bool
	Called(f calllog.Filter) []calllog.Entry
	CallCount() int
}

// API serves the runtime API.
type API struct {
	rt        Runtime
	log       *slog.Logger
	prefix    string
	startTime time.Time
	handler   http.Handler
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *API) { a.log = logging.OrNop(log) }
}

// WithPrefix sets the mount prefix.
func WithPrefix(prefix string) Option {
	return func(a *API) {
		if p := strings.Trim(prefix, "/"); p != "" {
			a.prefix = "/" + p
		}
	}
}

// New creates an API for rt.
func New(rt Runtime, opts ...Option) *API {
	a := &API{
		rt:        rt,
		log:       logging.Nop(),
		prefix:    DefaultPrefix,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)
	a.handler = http.StripPrefix(a.prefix, mux)
	return a
}

// Prefix returns the mount prefix.
func (a *API) Prefix() string { return a.prefix }

// Uptime returns the number of seconds since the API was created.
func (a *API) Uptime() int {
	return int(time.Since(a.startTime).Seconds())
}

// ServeHTTP serves requests whose path starts with the prefix.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// Middleware routes requests under the prefix to the API and everything
// else to next.
func (a *API) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, a.prefix+"/") {
			a.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
