package main

import (
	"context"

	"github.com/swdunlop/pack-go/pack/esbuild"
	"github.com/swdunlop/zugzug-go"
	"github.com/swdunlop/zugzug-go/zug/parser"
)

func init() {
	tasks = append(tasks, zugzug.Tasks{
		{Name: "build", Use: "Builds the project once, replacing its output directory", Fn: runBuild,
			Parser: parser.New(parser.String(&projectDir, "dir", "C", projectDirUse)), Settings: append(zugzug.Settings{
				{Var: &noClean, Name: `PACK_NO_CLEAN`,
					Use: "Keeps the previous contents of the output directory"},
			}, projectSettings...)},
	}...)
}

func runBuild(ctx context.Context) error {
	ctx, cancel := interruptible(ctx)
	defer cancel()
	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}
	var options []esbuild.Option
	if noClean {
		options = append(options, esbuild.NoClean())
	}
	_, err = esbuild.Build(ctx, cfg, options...)
	return err
}

var noClean bool
