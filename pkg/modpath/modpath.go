// Package modpath maps a request to the filesystem path its API definition
// is looked up under.
//
// A composed path has the shape
//
//	{root}/{apiDir}/{method}/{pathname}[-{query}]
//
// where the method is always lower case, the pathname and canonical query
// are optionally folded to lower case, and every character outside
// [A-Za-z0-9/] is replaced with the configured substitute. The file
// extension is added by the definition loader.
package modpath

import (
	"errors"
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/getmockd/msm/pkg/config"
)

// Errors returned for requests that cannot be mapped.
var (
	ErrMissingPathname = errors.New("missing pathname in request")
	ErrMissingMethod   = errors.New("missing method in request")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9/]`)

// Request is the part of an HTTP request the lookup path depends on.
type Request struct {
	Method   string
	Pathname string
	// Search is the raw query string, with or without the leading '?'.
	Search string
}

// Compose returns the lookup path for req under cfg. The result is
// deterministic: permutations of the same query parameters compose to the
// same path.
func Compose(req Request, cfg *config.Parsed) (string, error) {
	if req.Method == "" {
		return "", ErrMissingMethod
	}
	if req.Pathname == "" {
		return "", ErrMissingPathname
	}

	modulePath := req.Pathname
	if q := CanonicalQuery(req.Search, cfg.IgnoreQueries); q != "" {
		modulePath += "?" + q
	}
	if cfg.LowerCase {
		modulePath = strings.ToLower(modulePath)
	}
	modulePath = unsafeChars.ReplaceAllLiteralString(modulePath, cfg.NonChar)

	return filepath.Join(cfg.APIRoot(), strings.ToLower(req.Method), filepath.FromSlash(modulePath)), nil
}

// ComposeURL is Compose for a single request-target string such as
// "/api/user/1?id=2#top". The fragment is discarded.
func ComposeURL(method, rawURL string, cfg *config.Parsed) (string, error) {
	return Compose(SplitURL(method, rawURL), cfg)
}

// SplitURL breaks a request-target into a Request, dropping any fragment.
// The pathname is escaped the way an incoming request's EscapedPath is, so
// "/api/café" and "/api/caf%C3%A9" name the same file. Targets that do not
// parse as a plain path are split verbatim.
func SplitURL(method, rawURL string) Request {
	rawURL, _, _ = strings.Cut(rawURL, "#")
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "" && u.Host == "" && u.Opaque == "" {
		return Request{Method: method, Pathname: u.EscapedPath(), Search: u.RawQuery}
	}
	pathname, search, _ := strings.Cut(rawURL, "?")
	return Request{Method: method, Pathname: pathname, Search: search}
}

// CanonicalQuery rebuilds a query string with the parameters policy drops
// removed and the remaining names sorted. Values of a repeated name keep
// their original order. Names without a value are written bare.
func CanonicalQuery(search string, policy config.QueryPolicy) string {
	if policy.All() {
		return ""
	}
	search = strings.TrimPrefix(search, "?")
	if search == "" {
		return ""
	}

	values, err := url.ParseQuery(search)
	if err != nil {
		return rawCanonicalQuery(search, policy)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if name == "" || policy.Ignores(name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for _, name := range names {
		for _, v := range values[name] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(name))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}

// rawCanonicalQuery is the fallback for queries url.ParseQuery rejects. The
// raw name=value pairs are kept as written and sorted by raw name so no
// pair is lost.
func rawCanonicalQuery(search string, policy config.QueryPolicy) string {
	type pair struct{ name, raw string }

	var pairs []pair
	for _, raw := range strings.Split(search, "&") {
		if raw == "" {
			continue
		}
		name, _, _ := strings.Cut(raw, "=")
		if policy.Ignores(name) {
			continue
		}
		if unescaped, err := url.QueryUnescape(name); err == nil && policy.Ignores(unescaped) {
			continue
		}
		pairs = append(pairs, pair{name: name, raw: raw})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return strings.Compare(a.name, b.name) })

	raws := make([]string, len(pairs))
	for i, p := range pairs {
		raws[i] = p.raw
	}
	return strings.Join(raws, "&")
}
