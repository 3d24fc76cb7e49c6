package flags

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/msm/pkg/config"
)

func parse(t *testing.T, args ...string) (*Options, *pflag.FlagSet) {
	t.Helper()
	var o Options
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.Register(fs)
	require.NoError(t, fs.Parse(args))
	return &o, fs
}

func TestApply_OnlyChangedFlags(t *testing.T) {
	t.Parallel()
	o, fs := parse(t)

	cfg := config.Config{APIDir: "from-file", LowerCase: config.Bool(true)}
	require.NoError(t, o.Apply(fs, &cfg))
	assert.Equal(t, config.Config{APIDir: "from-file", LowerCase: config.Bool(true)}, cfg)
}

func TestApply_AllFlags(t *testing.T) {
	t.Parallel()
	o, fs := parse(t,
		"--root", "/srv",
		"--api-dir", "mocks",
		"--api-prefix", "/api/", "--api-prefix", "/v2/",
		"--non-char", "_",
		"--lower-case",
		"--ping", "250ms",
		"--ignore-queries", "token,ts",
		"--fallback-to-no-query=false",
		"--overwrite",
		"--save-header", "etag,x-request-id",
		"--log-level", "debug",
		"--log-format", "json",
	)

	var cfg config.Config
	require.NoError(t, o.Apply(fs, &cfg))

	parsed, err := config.Parse(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/srv", parsed.Root)
	assert.Equal(t, "mocks", parsed.APIDir)
	assert.Equal(t, []string{"/api/", "/v2/"}, parsed.APIPrefixes)
	assert.Equal(t, "_", parsed.NonChar)
	assert.True(t, parsed.LowerCase)
	assert.Equal(t, 250*time.Millisecond, parsed.Ping)
	assert.Equal(t, []string{"token", "ts"}, parsed.IgnoreQueries.Names())
	assert.False(t, parsed.FallbackToNoQuery)
	assert.True(t, parsed.OverwriteMode)
	assert.Equal(t, []string{"etag", "x-request-id"}, parsed.SaveHeaders)
	assert.Equal(t, "json", string(parsed.LogFormat))
}

func TestApply_IgnoreAll(t *testing.T) {
	t.Parallel()
	o, fs := parse(t, "--ignore-queries", "true")

	var cfg config.Config
	require.NoError(t, o.Apply(fs, &cfg))
	require.NotNil(t, cfg.IgnoreQueries)
	assert.True(t, cfg.IgnoreQueries.All())
}
