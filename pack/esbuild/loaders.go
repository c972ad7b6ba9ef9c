package esbuild

import (
	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/swdunlop/pack-go/pack"
)

// loaders maps transform names to esbuild loaders.  LoaderNone means the transform has no effect on how esbuild
// loads the file; eslint runs outside of the bundle.
var loaders = map[string]esbuild.Loader{
	`babel-loader`:  esbuild.LoaderJSX,
	`ts-loader`:     esbuild.LoaderTSX,
	`eslint-loader`: esbuild.LoaderNone,
	`html-loader`:   esbuild.LoaderText,
	`raw-loader`:    esbuild.LoaderText,
	`url-loader`:    esbuild.LoaderDataURL,
	`file-loader`:   esbuild.LoaderFile,
	`css-loader`:    esbuild.LoaderCSS,
	`style-loader`:  esbuild.LoaderNone,
	`json-loader`:   esbuild.LoaderJSON,
}

// ruleLoader picks the esbuild loader for a rule.  The first transform in the chain with an esbuild equivalent
// decides.  A url-loader with a limit inlines files up to limit bytes and emits larger ones as files.
func ruleLoader(rule pack.Rule, size int) (esbuild.Loader, bool) {
	for _, tr := range rule.Use {
		loader := loaders[tr.Loader]
		if loader == esbuild.LoaderNone {
			continue
		}
		if tr.Loader == `url-loader` {
			if limit, ok := tr.Int(`limit`); ok && size > limit {
				return esbuild.LoaderFile, true
			}
		}
		return loader, true
	}
	return esbuild.LoaderNone, false
}
