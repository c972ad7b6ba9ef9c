// Package reload serves the output of a development build and tells browsers when a rebuild has completed.  Pages
// subscribe to server sent events at /_pack/build and reload when a "build" event arrives:
//
//	new EventSource('/_pack/build').addEventListener('build', () => location.reload())
package reload

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/pack-go/pack"
	"github.com/swdunlop/pack-go/pack/esbuild"
	"github.com/tmaxmax/go-sse"
)

// EventsPath is the path of the build event stream.
const EventsPath = `/_pack/build`

// New returns a server for the output directory of cfg, mounted at its public path.
func New(cfg *pack.Config) *Server {
	svr := &Server{events: &sse.Server{}}
	prefix := cfg.Output.PublicPath
	if !strings.HasPrefix(prefix, `/`) {
		prefix = `/` // an absolute URL points at a CDN, serve from the root instead.
	}
	if !strings.HasSuffix(prefix, `/`) {
		prefix += `/`
	}
	svr.mux.Handle(EventsPath, svr.events)
	svr.mux.Handle(prefix, http.StripPrefix(strings.TrimSuffix(prefix, `/`), http.FileServer(http.Dir(cfg.Output.Dir))))
	return svr
}

// A Server serves build output and build events.
type Server struct {
	mux    http.ServeMux
	events *sse.Server
}

// ServeHTTP implements http.Handler.
func (svr *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svr.mux.ServeHTTP(w, r)
}

// Notify publishes a build event describing ret to every subscriber.  It is suitable as the notify function of
// esbuild.Watch.
func (svr *Server) Notify(ret *esbuild.Result) {
	var msg sse.Message
	msg.Type = sse.Type(`build`)
	js, err := json.Marshal(ret.Manifest)
	if err != nil {
		js = []byte(`null`)
	}
	msg.AppendData(string(js))
	_ = svr.events.Publish(&msg)
}

// Serve accepts connections from the listener until the context is cancelled, then closes it.
func (svr *Server) Serve(ctx context.Context, lr net.Listener) error {
	// no need to defer lr.Close, hs.Shutdown will close it
	hs := http.Server{Handler: svr}
	go func() {
		<-ctx.Done()
		_ = svr.events.Shutdown(context.Background())
		_ = hs.Shutdown(context.Background())
	}()

	hog.From(ctx).Info().Str(`address`, lr.Addr().String()).Msg(`serving build output`)
	err := hs.Serve(lr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	_ = lr.Close()
	return err
}
