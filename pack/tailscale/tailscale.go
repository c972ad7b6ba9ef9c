// Package tailscale listens on a Tailscale network so a development build can be opened from other devices on the
// tailnet, or from the internet through a funnel.
package tailscale

import (
	"context"
	"errors"
	"net"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"
)

// Listen joins the tailnet and listens on address.  Closing the listener also leaves the tailnet.  An empty address
// defaults to ":443", or ":80" when TLS is disabled.
func Listen(ctx context.Context, address string, options ...Option) (net.Listener, error) {
	cfg, err := newConfig(address, options...)
	if err != nil {
		return nil, err
	}
	return cfg.listen(ctx)
}

func newConfig(address string, options ...Option) (*config, error) {
	cfg := &config{address: address}
	for _, option := range options {
		err := option(cfg)
		if err != nil {
			return nil, err
		}
	}
	if cfg.funnel && cfg.noTLS {
		return nil, errors.New("funnels are required to use TLS by Tailscale")
	}
	if cfg.address == `` {
		cfg.address = `:443`
		if cfg.noTLS {
			cfg.address = `:80`
		}
	}
	return cfg, nil
}

type config struct {
	tsnet   tsnet.Server
	funnel  bool
	noTLS   bool
	upHooks []func(*tsnet.Server, *ipnstate.Status) error
	address string
}

func (cfg *config) listen(ctx context.Context) (net.Listener, error) {
	status, err := cfg.tsnet.Up(ctx)
	if err != nil {
		_ = cfg.tsnet.Close()
		return nil, err
	}
	for _, fn := range cfg.upHooks {
		err = fn(&cfg.tsnet, status)
		if err != nil {
			_ = cfg.tsnet.Close()
			return nil, err
		}
	}
	var lr net.Listener
	switch {
	case cfg.funnel:
		lr, err = cfg.tsnet.ListenFunnel(`tcp`, cfg.address)
	case cfg.noTLS:
		lr, err = cfg.tsnet.Listen(`tcp`, cfg.address)
	default:
		lr, err = cfg.tsnet.ListenTLS(`tcp`, cfg.address)
	}
	if err != nil {
		_ = cfg.tsnet.Close()
		return nil, err
	}
	return &listener{Listener: lr, server: &cfg.tsnet}, nil
}

type listener struct {
	net.Listener
	server *tsnet.Server
}

func (lr *listener) Close() error {
	return errors.Join(lr.Listener.Close(), lr.server.Close())
}

// An Option adjusts how the tailnet is joined.
type Option func(*config) error

// Dir specifies the state directory for Tailscale.
func Dir(dir string) Option {
	return func(cfg *config) error {
		cfg.tsnet.Dir = dir
		return nil
	}
}

// Hostname specifies the name of your Tailscale host.  Defaults to the system hostname.
func Hostname(hostname string) Option {
	return func(cfg *config) error {
		cfg.tsnet.Hostname = hostname
		return nil
	}
}

// Funnel tells Tailscale to allow public IPs to connect to the server.
func Funnel() Option {
	return func(cfg *config) error {
		cfg.funnel = true
		return nil
	}
}

// NoTLS tells Tailscale to not use TLS.  This is incompatible with Funnel.
func NoTLS() Option {
	return func(cfg *config) error {
		cfg.noTLS = true
		return nil
	}
}

// Logf sets the logging function for the Tailscale server, which is very chatty.
func Logf(fn func(format string, args ...any)) Option {
	return func(cfg *config) error {
		cfg.tsnet.Logf = fn
		return nil
	}
}

// HookUp adds a function that is called once the Tailscale connection is established and authorized, such as to
// report the FQDN of the host.  If the hook returns an error, the connection is closed.
func HookUp(fn func(*tsnet.Server, *ipnstate.Status) error) Option {
	return func(cfg *config) error {
		cfg.upHooks = append(cfg.upHooks, fn)
		return nil
	}
}
