package calllog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// PathMatcher decides whether an entry's pathname is selected.
type PathMatcher interface {
	MatchPath(pathname string) bool
}

type prefixMatcher string

func (p prefixMatcher) MatchPath(pathname string) bool {
	return strings.HasPrefix(pathname, string(p))
}

// Prefix matches pathnames starting with p.
func Prefix(p string) PathMatcher { return prefixMatcher(p) }

type regexpMatcher struct{ re *regexp.Regexp }

func (m regexpMatcher) MatchPath(pathname string) bool {
	loc := m.re.FindStringIndex(pathname)
	return loc != nil && loc[0] == 0
}

// Regexp matches pathnames where re finds a match starting at index 0.
func Regexp(re *regexp.Regexp) PathMatcher { return regexpMatcher{re: re} }

// BodyMatcher decides whether an entry's body is selected.
type BodyMatcher interface {
	MatchBody(body any) bool
}

type jsonPathMatcher struct{ x jp.Expr }

func (m jsonPathMatcher) MatchBody(body any) bool {
	if body == nil {
		return false
	}
	return len(m.x.Get(body)) > 0
}

// JSONPath matches bodies in which expr selects at least one value.
func JSONPath(expr string) (BodyMatcher, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath %q: %w", expr, err)
	}
	return jsonPathMatcher{x: x}, nil
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Pathname PathMatcher
	// Method is compared case-insensitively.
	Method string
	Body   BodyMatcher
}

// Match reports whether e passes every set criterion.
func (f Filter) Match(e *Entry) bool {
	if f.Pathname != nil && !f.Pathname.MatchPath(e.Pathname) {
		return false
	}
	if f.Method != "" && !strings.EqualFold(f.Method, e.Method) {
		return false
	}
	if f.Body != nil && !f.Body.MatchBody(e.Body) {
		return false
	}
	return true
}
