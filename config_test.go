package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdunlop/pack-go/pack"
)

// projectFixture writes a project that satisfies the default project literals, with an optional .env, and points
// the task settings at it.
func projectFixture(t *testing.T, env string) string {
	t.Helper()
	dir := t.TempDir()
	for _, sub := range []string{`src`, `test`, `utils`} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, `src`, `index.js`), []byte("export {}\n"), 0o644))
	if env != `` {
		require.NoError(t, os.WriteFile(filepath.Join(dir, `.env`), []byte(env), 0o644))
	}

	t.Setenv(`NODE_ENV`, ``)
	require.NoError(t, os.Unsetenv(`NODE_ENV`))
	prevDir, prevEnv := projectDir, nodeEnv
	t.Cleanup(func() { projectDir, nodeEnv = prevDir, prevEnv })
	projectDir, nodeEnv = dir, ``
	return dir
}

func TestResolveConfigFromDotEnv(t *testing.T) {
	dir := projectFixture(t, "NODE_ENV=development\n")
	cfg, err := resolveConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pack.Development, cfg.Mode)
	assert.Equal(t, filepath.Join(dir, `src`, `index.js`), cfg.Entry[`index`])
}

func TestResolveConfigSettingBeatsDotEnv(t *testing.T) {
	projectFixture(t, "NODE_ENV=development\n")
	nodeEnv = `production`
	cfg, err := resolveConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pack.Production, cfg.Mode)
}

func TestResolveConfigEnvironmentBeatsDotEnv(t *testing.T) {
	projectFixture(t, "NODE_ENV=development\n")
	t.Setenv(`NODE_ENV`, `production`)
	cfg, err := resolveConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pack.Production, cfg.Mode)
}

func TestResolveConfigWithoutMode(t *testing.T) {
	projectFixture(t, ``)
	_, err := resolveConfig(context.Background())
	var ce *pack.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, `mode`, ce.Field)
}

func TestResolveConfigProjectFile(t *testing.T) {
	dir := projectFixture(t, "NODE_ENV=production\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, `pack.jsonc`), []byte(`{
		// served from a CDN
		"publicPath": {"build": "https://cdn.example.com/app/", "dev": "/"},
	}`), 0o644))
	cfg, err := resolveConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `https://cdn.example.com/app/`, cfg.Output.PublicPath)
}

func setListenSettings(t *testing.T, address, hostname, listen string, funnel bool) {
	t.Helper()
	prev := [...]any{listenAddress, tailscaleHostname, tailscaleListen, tailscaleFunnel}
	t.Cleanup(func() {
		listenAddress = prev[0].(string)
		tailscaleHostname = prev[1].(string)
		tailscaleListen = prev[2].(string)
		tailscaleFunnel = prev[3].(bool)
	})
	listenAddress, tailscaleHostname, tailscaleListen, tailscaleFunnel = address, hostname, listen, funnel
}

func TestWatchListeners(t *testing.T) {
	setListenSettings(t, ``, ``, ``, false)
	listeners, err := watchListeners()
	require.NoError(t, err)
	assert.Empty(t, listeners)

	setListenSettings(t, `127.0.0.1:0`, ``, ``, false)
	listeners, err = watchListeners()
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	lr, err := listeners[0](context.Background())
	require.NoError(t, err)
	assert.NoError(t, lr.Close())

	setListenSettings(t, `127.0.0.1:0`, `pack-dev`, ``, false)
	listeners, err = watchListeners()
	require.NoError(t, err)
	assert.Len(t, listeners, 2)

	setListenSettings(t, ``, ``, `:8443`, true)
	_, err = watchListeners()
	assert.Error(t, err)
}
