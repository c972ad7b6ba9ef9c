// Package esbuild runs a resolved pack.Config through esbuild.  The configuration is translated into esbuild build
// options once; aliases, externals, noParse patterns, provided globals and transform rules are implemented as esbuild
// plugins.
package esbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/swdunlop/html-go/hog"
	"github.com/swdunlop/pack-go/pack"
	"github.com/swdunlop/pack-go/pack/manifest"
)

// Option is a function that can manipulate how a configuration is built.
type Option func(*config)

type config struct {
	build      esbuild.BuildOptions
	noClean    bool
	noManifest bool
}

// BuildOption returns an option that can manipulate the esbuild API build options structure after it has been
// derived from the configuration.  See https://esbuild.github.io/api for information on how to use esbuild options.
func BuildOption(fn func(*esbuild.BuildOptions)) Option {
	return func(cfg *config) { fn(&cfg.build) }
}

// NoClean keeps the previous contents of the output directory instead of replacing it.
func NoClean() Option {
	return func(cfg *config) { cfg.noClean = true }
}

// NoManifest skips writing manifest.json into the output directory.
func NoManifest() Option {
	return func(cfg *config) { cfg.noManifest = true }
}

// A Result describes a completed build.
type Result struct {
	Manifest *manifest.Manifest
	Outputs  []string // absolute paths of the files written
	Warnings int
	Duration time.Duration
}

// Options translates a configuration into esbuild build options.
func Options(cfg *pack.Config) (esbuild.BuildOptions, error) {
	var opts esbuild.BuildOptions
	matcher, err := cfg.Matcher()
	if err != nil {
		return opts, err
	}
	for i, rule := range cfg.Rules {
		for j, tr := range rule.Use {
			if _, ok := loaders[tr.Loader]; !ok {
				return opts, &pack.ConfigError{
					Field: fmt.Sprintf(`rules[%d].use[%d]`, i, j),
					Err:   fmt.Errorf(`unsupported loader %q`, tr.Loader),
				}
			}
		}
	}

	opts.AbsWorkingDir = cfg.Root
	for _, name := range cfg.Names() {
		opts.EntryPointsAdvanced = append(opts.EntryPointsAdvanced, esbuild.EntryPoint{
			InputPath:  cfg.Entry[name],
			OutputPath: name,
		})
	}
	opts.Outdir = cfg.Output.Dir
	opts.PublicPath = cfg.Output.PublicPath
	var entryExt, chunkExt string
	opts.EntryNames, entryExt = enginePattern(cfg.Output.Filename)
	opts.ChunkNames, chunkExt = enginePattern(cfg.Output.ChunkFilename)
	if entryExt != chunkExt {
		return opts, &pack.ConfigError{
			Field: `output.chunkFilename`,
			Err:   fmt.Errorf(`chunk extension %q differs from entry extension %q`, chunkExt, entryExt),
		}
	}
	if entryExt != `.js` {
		opts.OutExtension = map[string]string{`.js`: entryExt}
	}
	opts.ResolveExtensions = cfg.Extensions
	opts.Define = cfg.Define

	opts.Bundle = true
	opts.Splitting = true
	opts.Format = esbuild.FormatESModule
	opts.Platform = esbuild.PlatformBrowser
	opts.Metafile = true
	opts.Write = true
	opts.LogLevel = esbuild.LogLevelSilent
	production := cfg.Mode == pack.Production
	opts.MinifyWhitespace = production
	opts.MinifyIdentifiers = production
	opts.MinifySyntax = production
	opts.Sourcemap = cond(production, esbuild.SourceMapNone, esbuild.SourceMapLinked)

	opts.Inject = provideInjects(cfg)
	opts.Plugins = order(
		noParseStage(matcher),
		externalStage(cfg),
		aliasStage(cfg),
		provideStage(cfg),
		ruleStage(matcher),
	)
	return opts, nil
}

// Build replaces the output directory with a single build of the configuration.
func Build(ctx context.Context, cfg *pack.Config, options ...Option) (*Result, error) {
	bc, err := prepare(cfg, options...)
	if err != nil {
		return nil, err
	}
	ectx, ctxErr := esbuild.Context(bc.build)
	if ctxErr != nil {
		logMessages(ctx, ctxErr.Errors, nil)
		return nil, fmt.Errorf(`esbuild failed to start`)
	}
	defer ectx.Dispose()
	return bc.rebuild(ctx, cfg, ectx)
}

func prepare(cfg *pack.Config, options ...Option) (*config, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	bc := &config{build: opts}
	for _, option := range options {
		option(bc)
	}
	return bc, nil
}

func (bc *config) rebuild(ctx context.Context, cfg *pack.Config, ectx esbuild.BuildContext) (*Result, error) {
	started := time.Now()
	if !bc.noClean {
		if err := clean(cfg); err != nil {
			return nil, err
		}
	}

	stop := context.AfterFunc(ctx, ectx.Cancel)
	ret := ectx.Rebuild()
	stop()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logMessages(ctx, ret.Errors, ret.Warnings)
	if len(ret.Errors) > 0 {
		return nil, fmt.Errorf(`esbuild failed with %d errors`, len(ret.Errors))
	}

	result := &Result{Warnings: len(ret.Warnings)}
	contents := make(map[string][]byte, len(ret.OutputFiles))
	for _, file := range ret.OutputFiles {
		result.Outputs = append(result.Outputs, file.Path)
		contents[file.Path] = file.Contents
	}
	if ret.Metafile != `` {
		m, err := manifest.New(cfg, []byte(ret.Metafile), contents)
		if err != nil {
			return nil, err
		}
		result.Manifest = m
		if !bc.noManifest && bc.build.Write {
			if err = m.Write(cfg.Output.Dir); err != nil {
				return nil, err
			}
		}
	}
	result.Duration = time.Since(started)
	hog.From(ctx).Info().
		Int(`outputs`, len(result.Outputs)).
		Int(`warnings`, result.Warnings).
		Dur(`duration`, result.Duration).
		Msg(`build complete`)
	return result, nil
}

// clean removes the output directory and recreates it empty.
func clean(cfg *pack.Config) error {
	dir := cfg.Output.Dir
	if dir == `` || dir == cfg.Root || strings.HasPrefix(cfg.Root, dir+string(filepath.Separator)) {
		return fmt.Errorf(`refusing to clean %q, it contains the project`, dir)
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

func logMessages(ctx context.Context, errs, warnings []esbuild.Message) {
	log := hog.From(ctx)
	for _, msg := range errs {
		evt := log.Error()
		if loc := msg.Location; loc != nil {
			evt = evt.Str(`file`, loc.File).Int(`line`, loc.Line).Int(`column`, loc.Column)
		}
		evt.Str(`plugin`, msg.PluginName).Msg(msg.Text)
	}
	for _, msg := range warnings {
		evt := log.Warn()
		if loc := msg.Location; loc != nil {
			evt = evt.Str(`file`, loc.File).Int(`line`, loc.Line)
		}
		evt.Msg(msg.Text)
	}
}

// enginePattern converts a filename pattern into an esbuild name template and the extension esbuild should use.
func enginePattern(p pack.Pattern) (string, string) {
	s := string(p)
	ext := `.js`
	if strings.HasSuffix(s, `.[ext]`) {
		s = strings.TrimSuffix(s, `.[ext]`)
	} else if e := path.Ext(s); e != `` && !strings.ContainsAny(e, `[]`) {
		ext = e
		s = strings.TrimSuffix(s, e)
	}
	return pack.Pattern(s).Map(func(name string, _ int) string {
		switch name {
		case `name`, `id`:
			return `[name]`
		case `ext`:
			return ``
		}
		return `[hash]`
	}), ext
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
