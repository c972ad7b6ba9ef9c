package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdunlop/pack-go/pack"
)

func TestLoadDefaults(t *testing.T) {
	p, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, pack.DefaultProject(), p)
}

func TestLoadJSONC(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, `pack.jsonc`), []byte(`{
		// served from a CDN
		"publicPath": {"build": "https://cdn.example.com/app/", "dev": "/"},
		"entry": {"app": "src/app"},
		"output": {"filename": "[name].[contenthash:8].js"},
		/* provided by the page */
		"externals": {"jquery": "jQuery",},
	}`), 0o644))

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, `https://cdn.example.com/app/`, p.PublicPath.Build)
	assert.Equal(t, map[string]string{`app`: `src/app`}, p.Entry)
	assert.Equal(t, pack.Pattern(`[name].[contenthash:8].js`), p.Output.Filename)
	assert.Equal(t, `dist`, p.Output.Dir)
	assert.Equal(t, pack.Pattern(`[chunkhash].[id].js`), p.Output.ChunkFilename)
	assert.Equal(t, map[string]string{`jquery`: `jQuery`}, p.Externals)
	assert.Equal(t, pack.DefaultProject().Rules, p.Rules)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`{"entries": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entries`)
}

func TestParseRejectsBadJSON(t *testing.T) {
	_, err := Parse([]byte(`{"entry": [}`))
	require.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnv(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, `.env`), []byte("PACK_TEST_MODE=production\n"), 0o644))
	t.Setenv(`PACK_TEST_MODE`, ``)
	require.NoError(t, os.Unsetenv(`PACK_TEST_MODE`))
	require.NoError(t, LoadEnv(dir))
	assert.Equal(t, `production`, os.Getenv(`PACK_TEST_MODE`))
}

func TestOptionsResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, `web`), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, `web`, `main.js`), []byte("export {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, `pack.json`), []byte(`{
		"entry": {"main": "web/main"},
		"rules": [{"test": "\\.js$", "include": ["web"], "use": [{"loader": "babel-loader"}]}],
		"alias": {"@": "./web"}
	}`), 0o644))

	options, err := Options(dir)
	require.NoError(t, err)
	cfg, err := pack.Resolve(pack.Production, options...)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, `web`, `main.js`), cfg.Entry[`main`])
	assert.Equal(t, filepath.Join(dir, `web`), cfg.Alias[`@`])
	assert.Equal(t, filepath.Join(dir, `web`), cfg.Rules[0].Include[0])
}

func TestParseReplacesRules(t *testing.T) {
	p, err := Parse([]byte(`{"rules": [{"test": "\\.ts$", "use": [{"loader": "ts-loader"}]}]}`))
	require.NoError(t, err)
	require.Len(t, p.Rules, 1)
	assert.Empty(t, p.Rules[0].Include)
	assert.Equal(t, []pack.Transform{{Loader: `ts-loader`}}, p.Rules[0].Use)
}
