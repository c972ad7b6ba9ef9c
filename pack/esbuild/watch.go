package esbuild

import (
	"context"
	"fmt"
	"path/filepath"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/pack-go/pack"
	"github.com/swdunlop/pack-go/pack/watcher"
)

// Watch builds the configuration, then rebuilds it whenever a file under the project root changes until the context
// is cancelled.  Notify, if not nil, is called after every successful build.  A failed rebuild is logged and the
// watch continues.
func Watch(ctx context.Context, cfg *pack.Config, notify func(*Result), options ...Option) error {
	bc, err := prepare(cfg, options...)
	if err != nil {
		return err
	}
	ectx, ctxErr := esbuild.Context(bc.build)
	if ctxErr != nil {
		logMessages(ctx, ctxErr.Errors, nil)
		return fmt.Errorf(`esbuild failed to start`)
	}
	defer ectx.Dispose()

	wr, err := watcher.Start(ctx,
		watcher.Directory(cfg.Root),
		watcher.Skip(cfg.Output.Dir, filepath.Join(cfg.Root, `node_modules`)),
	)
	if err != nil {
		return err
	}

	build := func() {
		ret, err := bc.rebuild(ctx, cfg, ectx)
		switch {
		case ctx.Err() != nil:
		case err != nil:
			hog.From(ctx).Error().Err(err).Msg(`build failed`)
		case notify != nil:
			notify(ret)
		}
	}
	build()
	for batch := range wr.Changes() {
		hog.From(ctx).Debug().Strs(`changed`, batch).Msg(`rebuilding`)
		build()
	}
	<-wr.Done()
	return nil
}
