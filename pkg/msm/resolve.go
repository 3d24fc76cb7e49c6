package msm

import (
	"net/http"

	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/modpath"
)

// Source tells where a resolved handler came from.
type Source string

// Resolution sources.
const (
	SourceOverride Source = "override"
	SourceFile     Source = "file"
	SourceNotFound Source = "notfound"
)

// Resolution is the outcome of looking up a request.
type Resolution struct {
	Handler http.Handler
	Source  Source
	// Key is the composed path that matched, or the primary key when
	// nothing matched.
	Key string
	// Path is the definition file, for SourceFile.
	Path string
}

// Resolve finds the handler for r. The composed path is tried against the
// overrides and then the definition files. When FallbackToNoQuery is set
// and r has a query, the same is repeated for the path without the query.
// A once override consumed here is gone for later calls.
func (s *Server) Resolve(r *http.Request) Resolution {
	req := modpath.Request{Method: r.Method, Pathname: r.URL.EscapedPath(), Search: r.URL.RawQuery}

	primary, err := modpath.Compose(req, s.cfg)
	if err != nil {
		s.logger.Error("cannot compose lookup path", "method", r.Method, "path", r.URL.RequestURI(), "error", err)
		return Resolution{Handler: definition.NotFound(), Source: SourceNotFound}
	}
	if res, ok := s.lookup(primary); ok {
		return res
	}

	if s.cfg.FallbackToNoQuery && modpath.CanonicalQuery(req.Search, s.cfg.IgnoreQueries) != "" {
		fallback, err := modpath.Compose(req, s.cfg.WithoutQuery())
		if err == nil && fallback != primary {
			if res, ok := s.lookup(fallback); ok {
				s.logger.Debug("served query-less definition", "key", fallback)
				return res
			}
		}
	}

	s.logger.Warn("definition not found", "key", primary)
	return Resolution{Handler: definition.NotFound(), Source: SourceNotFound, Key: primary}
}

func (s *Server) lookup(key string) (Resolution, bool) {
	if d, ok := s.overrides.Lookup(key); ok {
		s.logger.Debug("serving override", "key", key, "kind", d.Kind())
		return Resolution{Handler: d.Handler(), Source: SourceOverride, Key: key}, true
	}
	if r, err := s.loader.Load(key); err == nil {
		return Resolution{Handler: r.Handler(), Source: SourceFile, Key: key, Path: r.Path}, true
	}
	return Resolution{}, false
}
