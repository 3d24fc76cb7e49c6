// Package fixtures inspects the definition files under an API directory.
package fixtures

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/getmockd/msm/pkg/config"
	"github.com/getmockd/msm/pkg/definition"
	"github.com/getmockd/msm/pkg/definition/script"
)

// Pattern selects definition files below the API directory.
const Pattern = "**/*.{json,json5,expr}"

// ErrNoAPIDir is returned when the API directory does not exist.
var ErrNoAPIDir = errors.New("api directory not found")

// Fixture is a definition file found on disk.
type Fixture struct {
	// Path is the absolute file path.
	Path string `json:"path"`
	// Rel is Path relative to the API directory, slash separated.
	Rel string `json:"rel"`
	// Method is the lower-case method directory the file lives in.
	Method string `json:"method"`
	// Key is the lookup path the file answers, relative to the API
	// directory: Rel without its extension and without a trailing /index.
	Key    string            `json:"key"`
	Format definition.Format `json:"format"`
}

// List returns the definition files under cfg.APIRoot(), sorted by Rel.
func List(cfg *config.Parsed) ([]Fixture, error) {
	root := cfg.APIRoot()
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoAPIDir, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoAPIDir, root)
	}

	matches, err := doublestar.Glob(os.DirFS(root), Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expanding %s: %w", Pattern, err)
	}
	sort.Strings(matches)

	fixtures := make([]Fixture, 0, len(matches))
	for _, rel := range matches {
		fixtures = append(fixtures, newFixture(root, rel))
	}
	return fixtures, nil
}

func newFixture(root, rel string) Fixture {
	f := Fixture{
		Path: filepath.Join(root, filepath.FromSlash(rel)),
		Rel:  rel,
	}

	ext := path.Ext(rel)
	switch ext {
	case ".json5":
		f.Format = definition.FormatJSON5
	case ".json":
		f.Format = definition.FormatJSON
	case script.Ext:
		f.Format = definition.FormatCode
	}

	key := strings.TrimSuffix(rel, ext)
	if f.Format != definition.FormatCode && (key == "index" || strings.HasSuffix(key, "/index")) {
		key = strings.TrimSuffix(strings.TrimSuffix(key, "index"), "/")
	}
	f.Key = key

	if i := strings.IndexByte(rel, '/'); i > 0 {
		f.Method = rel[:i]
	}
	return f
}
