package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "msm.yaml")
	content := `apiDir: fixtures
apiPrefixes:
  - /api/
  - /graphql
lowerCase: true
ping: 50
ignoreQueries: [_t]
saveHeaders: [X-Request-Id]
logLevel: WARN
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "fixtures", cfg.APIDir)
	assert.Equal(t, []string{"/api/", "/graphql"}, cfg.APIPrefixes)
	require.NotNil(t, cfg.LowerCase)
	assert.True(t, *cfg.LowerCase)
	assert.Equal(t, []string{"_t"}, cfg.IgnoreQueries.Names())
	assert.Equal(t, "WARN", cfg.LogLevel)
}

func TestLoadFile_JSONWithComments(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "msm.json")
	content := `{
		// where fixtures live
		"apiDir": "fixtures",
		/* drop everything after ? */
		"ignoreQueries": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fixtures", cfg.APIDir)
	assert.True(t, cfg.IgnoreQueries.All())
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrFileNotFound)

	badJSON := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badJSON, []byte(`{ apiDir: `), 0644))
	_, err = LoadFile(badJSON)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("apiPrefixes: [unclosed\n"), 0644))
	_, err = LoadFile(badYAML)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestFindFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.Empty(t, FindFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "msm.json"), []byte(`{}`), 0644))
	assert.Equal(t, filepath.Join(dir, "msm.json"), FindFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "msm.yaml"), []byte(``), 0644))
	assert.Equal(t, filepath.Join(dir, "msm.yaml"), FindFile(dir))
}
