package esbuild

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/swdunlop/pack-go/pack"
)

const (
	externalNamespace = `pack-external`
	provideNamespace  = `pack-provide`
	providePrefix     = provideNamespace + `:`
)

// aliased marks requests that have already been rewritten so the alias plugin does not see them twice.
type aliased struct{}

// externalStage replaces imports of external dependencies with a module that reads the global binding.  A missing
// global only fails when the bundle runs.
func externalStage(cfg *pack.Config) stage {
	st := stage{name: `externals`}
	if len(cfg.Externals) == 0 {
		return st
	}
	names := slices.Sorted(maps.Keys(cfg.Externals))
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = regexp.QuoteMeta(name)
	}
	filter := `^(?:` + strings.Join(quoted, `|`) + `)$`
	st.setup = func(build esbuild.PluginBuild) {
		build.OnResolve(esbuild.OnResolveOptions{Filter: filter}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
			return esbuild.OnResolveResult{Path: args.Path, Namespace: externalNamespace}, nil
		})
		build.OnLoad(esbuild.OnLoadOptions{Filter: `.*`, Namespace: externalNamespace}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
			global, ok := cfg.Externals[args.Path]
			if !ok {
				return esbuild.OnLoadResult{}, fmt.Errorf(`no global for external %q`, args.Path)
			}
			js := `module.exports = ` + globalExpr(global) + ";\n"
			return esbuild.OnLoadResult{Contents: &js, Loader: esbuild.LoaderJS}, nil
		})
	}
	return st
}

// globalExpr converts a dotted binding such as "React.DOM" into globalThis["React"]["DOM"].
func globalExpr(binding string) string {
	var buf strings.Builder
	buf.WriteString(`globalThis`)
	for _, part := range strings.Split(binding, `.`) {
		buf.WriteString(`[`)
		buf.WriteString(strconv.Quote(part))
		buf.WriteString(`]`)
	}
	return buf.String()
}

// noParseStage makes every import from a noParse module external, so its dependencies are not bundled.
func noParseStage(m *pack.Matcher) stage {
	return stage{name: `noparse`, setup: func(build esbuild.PluginBuild) {
		build.OnResolve(esbuild.OnResolveOptions{Filter: `.*`, Namespace: `file`}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
			if args.Kind == esbuild.ResolveEntryPoint || args.Importer == `` || !m.NoParse(args.Importer) {
				return esbuild.OnResolveResult{}, nil
			}
			return esbuild.OnResolveResult{Path: args.Path, External: true}, nil
		})
	}}
}

// aliasStage rewrites aliased requests and resolves the result with the normal resolver.
func aliasStage(cfg *pack.Config) stage {
	st := stage{name: `alias`, after: []string{`externals`, `noparse`}}
	if len(cfg.Alias) == 0 {
		return st
	}
	tokens := slices.Sorted(maps.Keys(cfg.Alias))
	alts := make([]string, len(tokens))
	for i, token := range tokens {
		alts[i] = regexp.QuoteMeta(token)
		if !strings.HasSuffix(token, `/`) {
			alts[i] += `(?:/|$)`
		}
	}
	filter := `^(?:` + strings.Join(alts, `|`) + `)`
	st.setup = func(build esbuild.PluginBuild) {
		build.OnResolve(esbuild.OnResolveOptions{Filter: filter}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
			if _, done := args.PluginData.(aliased); done {
				return esbuild.OnResolveResult{}, nil
			}
			request, ok := cfg.ResolveAlias(args.Path)
			if !ok {
				return esbuild.OnResolveResult{}, nil
			}
			ret := build.Resolve(request, esbuild.ResolveOptions{
				Importer:   args.Importer,
				Namespace:  args.Namespace,
				ResolveDir: args.ResolveDir,
				Kind:       args.Kind,
				PluginData: aliased{},
			})
			if len(ret.Errors) > 0 {
				return esbuild.OnResolveResult{Errors: ret.Errors}, nil
			}
			return esbuild.OnResolveResult{
				Path:        ret.Path,
				External:    ret.External,
				Namespace:   ret.Namespace,
				SideEffects: cond(ret.SideEffects, esbuild.SideEffectsTrue, esbuild.SideEffectsFalse),
				Suffix:      ret.Suffix,
			}, nil
		})
	}
	return st
}

// provideInjects lists one virtual inject module per provided identifier.  esbuild replaces free uses of an
// identifier exported by an inject module with an import of it; local declarations still shadow it.
func provideInjects(cfg *pack.Config) []string {
	idents := slices.Sorted(maps.Keys(cfg.Provide))
	injects := make([]string, len(idents))
	for i, ident := range idents {
		injects[i] = providePrefix + ident
	}
	return injects
}

func provideStage(cfg *pack.Config) stage {
	st := stage{name: `provide`, after: []string{`alias`}}
	if len(cfg.Provide) == 0 {
		return st
	}
	st.setup = func(build esbuild.PluginBuild) {
		build.OnResolve(esbuild.OnResolveOptions{Filter: `^` + regexp.QuoteMeta(providePrefix)}, func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
			return esbuild.OnResolveResult{Path: strings.TrimPrefix(args.Path, providePrefix), Namespace: provideNamespace}, nil
		})
		build.OnLoad(esbuild.OnLoadOptions{Filter: `.*`, Namespace: provideNamespace}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
			pv, ok := cfg.Provide[args.Path]
			if !ok {
				return esbuild.OnLoadResult{}, fmt.Errorf(`nothing provides %q`, args.Path)
			}
			js := provideModule(args.Path, pv)
			return esbuild.OnLoadResult{Contents: &js, Loader: esbuild.LoaderJS, ResolveDir: cfg.Root}, nil
		})
	}
	return st
}

// provideModule binds ident to the module namespace, preferring a default export when the module has one so that
// CommonJS modules provide their module.exports.
func provideModule(ident string, pv pack.Provision) string {
	value := `"default" in ns ? ns.default : ns`
	if pv.Export != `` {
		value = `ns[` + strconv.Quote(pv.Export) + `]`
	}
	return fmt.Sprintf("import * as ns from %s;\nexport const %s = %s;\n", strconv.Quote(pv.Module), ident, value)
}

// ruleStage loads files with the loader selected by the first matching rule.  Files no rule matches are left to
// esbuild's defaults.
func ruleStage(m *pack.Matcher) stage {
	return stage{name: `rules`, setup: func(build esbuild.PluginBuild) {
		build.OnLoad(esbuild.OnLoadOptions{Filter: `.*`, Namespace: `file`}, func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
			rule, ok := m.Rule(args.Path + args.Suffix)
			if !ok {
				return esbuild.OnLoadResult{}, nil
			}
			data, err := os.ReadFile(args.Path)
			if err != nil {
				return esbuild.OnLoadResult{}, err
			}
			loader, ok := ruleLoader(rule, len(data))
			if !ok {
				return esbuild.OnLoadResult{}, nil
			}
			contents := string(data)
			return esbuild.OnLoadResult{
				Contents:   &contents,
				Loader:     loader,
				ResolveDir: filepath.Dir(args.Path),
			}, nil
		})
	}}
}
