package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/pack-go/pack"
	"github.com/swdunlop/pack-go/pack/project"
	"github.com/swdunlop/zugzug-go"
)

const projectDirUse = "The project root containing src/ and an optional pack.jsonc"

var projectSettings = zugzug.Settings{
	{Var: &nodeEnv, Name: `NODE_ENV`,
		Use: "Build mode, either \"production\" or \"development\"; may be set in the project's .env"},
}

// resolveConfig loads the project's .env and project file and resolves the configuration for NODE_ENV.
func resolveConfig(ctx context.Context) (*pack.Config, error) {
	dir := projectDir
	if dir == `` {
		dir = `.`
	}
	if err := project.LoadEnv(dir); err != nil {
		return nil, err
	}
	if nodeEnv == `` {
		nodeEnv = os.Getenv(`NODE_ENV`)
	}
	mode, err := pack.ParseMode(nodeEnv)
	if err != nil {
		return nil, err
	}
	options, err := project.Options(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := pack.Resolve(mode, options...)
	if err != nil {
		return nil, err
	}
	hog.From(ctx).Info().
		Str(`mode`, string(cfg.Mode)).
		Str(`root`, cfg.Root).
		Strs(`entries`, cfg.Names()).
		Msg(`resolved configuration`)
	return cfg, nil
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

var (
	projectDir string
	nodeEnv    string
)
