package main

import (
	"context"
	"errors"
	"net"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/pack-go/pack/esbuild"
	"github.com/swdunlop/pack-go/pack/reload"
	"github.com/swdunlop/pack-go/pack/tailscale"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: "watch", Use: "Rebuilds the project when its sources change", Fn: runWatch,
			Parser: parser.New(parser.String(&projectDir, "dir", "C", projectDirUse)), Settings: append(zugzug.Settings{
				{Var: &listenAddress, Name: `PACK_LISTEN`,
					Use: "Serves the output with live reload events at this address (default: disabled)"},

				{Var: &tailscaleHostname, Name: `PACK_TAILSCALE_HOSTNAME`,
					Use: "Serves the output with live reload events on your Tailscale network under this hostname"},
				{Var: &tailscaleListen, Name: `PACK_TAILSCALE_LISTEN`,
					Use: "Listening address on your Tailscale network (default: \":443\" or \":80\")"},
				{Var: &tailscaleFunnel, Name: `PACK_TAILSCALE_FUNNEL`,
					Use: "Enables internet access via a Tailscale funnel"},
				{Var: &tailscaleDir, Name: `PACK_TAILSCALE_DIR`,
					Use: "State directory for Tailscale"},
				{Var: &noTailscaleTLS, Name: `PACK_NO_TAILSCALE_TLS`,
					Use: "Disables TLS for Tailscale"},
			}, projectSettings...)},
	}...)
}

func runWatch(ctx context.Context) error {
	ctx, cancel := interruptible(ctx)
	defer cancel()
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}

	listeners, err := watchListeners()
	if err != nil {
		return err
	}
	var notify func(*esbuild.Result)
	serveErr := make(chan error, len(listeners))
	if len(listeners) > 0 {
		svr := reload.New(cfg)
		notify = svr.Notify
		for _, listen := range listeners {
			go func() {
				err := serve(ctx, svr, listen)
				if err != nil {
					hog.From(ctx).Error().Err(err).Msg(`live reload server failed`)
				}
				serveErr <- err
				cancel()
			}()
		}
	}

	errs := []error{esbuild.Watch(ctx, cfg, notify)}
	cancel()
	for range listeners {
		errs = append(errs, <-serveErr)
	}
	return errors.Join(errs...)
}

type listenFunc func(context.Context) (net.Listener, error)

func serve(ctx context.Context, svr *reload.Server, listen listenFunc) error {
	lr, err := listen(ctx)
	if err != nil {
		return err
	}
	return svr.Serve(ctx, lr)
}

// watchListeners returns the listeners for the live reload server; none if neither PACK_LISTEN nor Tailscale is
// configured.
func watchListeners() ([]listenFunc, error) {
	var listeners []listenFunc
	if listenAddress != `` {
		address := listenAddress
		listeners = append(listeners, func(ctx context.Context) (net.Listener, error) {
			var lcf net.ListenConfig
			return lcf.Listen(ctx, `tcp`, address)
		})
	}

	if tailscaleFunnel && tailscaleListen != `` {
		return nil, errors.New("you cannot combine PACK_TAILSCALE_FUNNEL with PACK_TAILSCALE_LISTEN")
	}
	if tailscaleHostname == `` && tailscaleListen == `` && !tailscaleFunnel {
		return listeners, nil
	}
	var options []tailscale.Option
	if tailscaleHostname != `` {
		options = append(options, tailscale.Hostname(tailscaleHostname))
	}
	if tailscaleFunnel {
		options = append(options, tailscale.Funnel())
	}
	if noTailscaleTLS {
		options = append(options, tailscale.NoTLS())
	}
	if tailscaleDir != `` {
		options = append(options, tailscale.Dir(tailscaleDir))
	}
	address := tailscaleListen
	listeners = append(listeners, func(ctx context.Context) (net.Listener, error) {
		log := hog.From(ctx)
		options := append(options, tailscale.Logf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}))
		return tailscale.Listen(ctx, address, options...)
	})
	return listeners, nil
}

var (
	listenAddress string

	tailscaleHostname string
	tailscaleListen   string
	tailscaleFunnel   bool
	tailscaleDir      string
	noTailscaleTLS    bool
)
