package reload

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdunlop/pack-go/pack"
	"github.com/swdunlop/pack-go/pack/esbuild"
	"github.com/swdunlop/pack-go/pack/manifest"
)

func outputFixture(t *testing.T, publicPath string) *pack.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, `index.js`), []byte(`console.log(1)`), 0o644))
	return &pack.Config{Output: pack.Output{Dir: dir, PublicPath: publicPath}}
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestServesOutputAtPublicPath(t *testing.T) {
	svr := New(outputFixture(t, `/static/`))

	code, body := get(t, svr, `/static/index.js`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, `console.log(1)`, body)

	code, _ = get(t, svr, `/index.js`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServesOutputAtRoot(t *testing.T) {
	for _, publicPath := range []string{`/`, ``, `https://cdn.example.com/app/`} {
		svr := New(outputFixture(t, publicPath))
		code, body := get(t, svr, `/index.js`)
		assert.Equal(t, http.StatusOK, code, publicPath)
		assert.Equal(t, `console.log(1)`, body, publicPath)
	}
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	svr := New(outputFixture(t, `/`))
	assert.NotPanics(t, func() {
		svr.Notify(&esbuild.Result{Manifest: &manifest.Manifest{PublicPath: `/`}})
		svr.Notify(&esbuild.Result{})
	})
}

func TestServeUntilCancelled(t *testing.T) {
	svr := New(outputFixture(t, `/static/`))
	lr, err := net.Listen(`tcp`, `127.0.0.1:0`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- svr.Serve(ctx, lr) }()

	rsp, err := http.Get(`http://` + lr.Addr().String() + `/static/index.js`)
	require.NoError(t, err)
	body, err := io.ReadAll(rsp.Body)
	_ = rsp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, `console.log(1)`, string(body))

	cancel()
	require.NoError(t, <-served)
}
