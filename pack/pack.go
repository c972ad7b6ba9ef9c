// Package pack resolves the configuration for a front end build.  A Config is assembled once per build from a Project
// (the static literals of a project) and a Mode, and then handed to a bundling engine such as the one in pack/esbuild.
// Nothing in this package performs a build; it only describes one.
package pack

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
)

// Resolve assembles a configuration for the given mode.  Options are applied to a copy of DefaultProject before any
// paths are resolved.  If any path is missing or any field is inconsistent, Resolve returns a *ConfigError and no
// configuration.
func Resolve(mode Mode, options ...Option) (*Config, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	var r resolver
	r.project = DefaultProject()
	r.root = `.`
	for _, option := range options {
		err := option(&r)
		if err != nil {
			return nil, err
		}
	}
	return r.resolve(mode)
}

// An Option is a function that modifies a project before it is resolved.
type Option func(*resolver) error

type resolver struct {
	root    string
	project Project
}

// Root sets the project root directory that relative paths are resolved against.  Defaults to the working
// directory.
func Root(dir string) Option {
	return func(r *resolver) error {
		r.root = dir
		return nil
	}
}

// WithProject replaces the project literals entirely, see pack/project for loading them from a file.
func WithProject(p Project) Option {
	return func(r *resolver) error {
		r.project = p.clone()
		return nil
	}
}

// Entry adds or replaces an entry point.
func Entry(name, path string) Option {
	return func(r *resolver) error {
		if r.project.Entry == nil {
			r.project.Entry = make(map[string]string)
		}
		r.project.Entry[name] = path
		return nil
	}
}

// Alias adds or replaces a resolution alias.  Targets starting with "./", "../" or "/" are paths, anything else is a
// package name.
func Alias(token, target string) Option {
	return func(r *resolver) error {
		if r.project.Alias == nil {
			r.project.Alias = make(map[string]string)
		}
		r.project.Alias[token] = target
		return nil
	}
}

// External marks an import as provided by the host at runtime through the named global.
func External(name, global string) Option {
	return func(r *resolver) error {
		if r.project.Externals == nil {
			r.project.Externals = make(map[string]string)
		}
		r.project.Externals[name] = global
		return nil
	}
}

// Provide makes a free identifier resolve to the given module.
func Provide(ident, module string) Option {
	return ProvideExport(ident, module, ``)
}

// ProvideExport makes a free identifier resolve to a named export of the given module.  An empty export is the same as
// Provide.
func ProvideExport(ident, module, export string) Option {
	return func(r *resolver) error {
		if r.project.Provide == nil {
			r.project.Provide = make(map[string]Provision)
		}
		r.project.Provide[ident] = Provision{Module: module, Export: export}
		return nil
	}
}

// Define adds a compile time constant.  The value is JavaScript source, so strings must be quoted.
func Define(key, value string) Option {
	return func(r *resolver) error {
		if r.project.Define == nil {
			r.project.Define = make(map[string]string)
		}
		r.project.Define[key] = value
		return nil
	}
}

// PublicPath sets the public path used by production and development builds.
func PublicPath(build, dev string) Option {
	return func(r *resolver) error {
		r.project.PublicPath = PublicPaths{Build: build, Dev: dev}
		return nil
	}
}

// A Config is a fully resolved build configuration.  All paths are absolute.  A Config is not modified after Resolve
// returns it, and each call to Resolve returns a fresh one.
type Config struct {
	Mode       Mode                 `json:"mode"`
	Root       string               `json:"root"`
	Entry      map[string]string    `json:"entry"`
	Output     Output               `json:"output"`
	NoParse    []string             `json:"noParse,omitempty"`
	Rules      []Rule               `json:"rules,omitempty"`
	Extensions []string             `json:"extensions,omitempty"`
	Alias      map[string]string    `json:"alias,omitempty"`
	Externals  map[string]string    `json:"externals,omitempty"`
	Provide    map[string]Provision `json:"provide,omitempty"`
	Define     map[string]string    `json:"define,omitempty"`
}

// Output describes where and how bundles are written.
type Output struct {
	Dir           string  `json:"dir"`
	Filename      Pattern `json:"filename"`
	ChunkFilename Pattern `json:"chunkFilename"`
	PublicPath    string  `json:"publicPath"`
}

// Names returns the entry names in sorted order.
func (cfg *Config) Names() []string {
	return slices.Sorted(maps.Keys(cfg.Entry))
}

func (r *resolver) resolve(mode Mode) (*Config, error) {
	p := &r.project
	root, err := filepath.Abs(r.root)
	if err != nil {
		return nil, configErr(`root`, err)
	}
	if err = requireDir(root); err != nil {
		return nil, configErr(`root`, err)
	}

	cfg := &Config{
		Mode:       mode,
		Root:       root,
		Extensions: normalizeExtensions(p.Extensions),
		Entry:      make(map[string]string, len(p.Entry)),
		Alias:      make(map[string]string, len(p.Alias)),
		Externals:  maps.Clone(p.Externals),
		Provide:    maps.Clone(p.Provide),
		Define:     make(map[string]string, len(p.Define)+2),
		NoParse:    slices.Clone(p.NoParse),
	}

	if len(p.Entry) == 0 {
		return nil, configErr(`entry`, fmt.Errorf(`no entry points`))
	}
	for name, path := range p.Entry {
		if name == `` {
			return nil, configErr(`entry`, fmt.Errorf(`entry point name is empty`))
		}
		file, err := findModule(join(root, path), cfg.Extensions)
		if err != nil {
			return nil, configErr(`entry[`+name+`]`, err)
		}
		cfg.Entry[name] = file
	}

	if p.Output.Dir == `` {
		return nil, configErr(`output.dir`, fmt.Errorf(`no output directory`))
	}
	cfg.Output.Dir = join(root, p.Output.Dir)
	if cfg.Output.Dir == root {
		return nil, configErr(`output.dir`, fmt.Errorf(`output directory may not be the project root`))
	}
	cfg.Output.Filename = p.Output.Filename
	cfg.Output.ChunkFilename = p.Output.ChunkFilename
	if err = cfg.Output.Filename.Validate(); err != nil {
		return nil, configErr(`output.filename`, err)
	}
	if err = cfg.Output.ChunkFilename.Validate(); err != nil {
		return nil, configErr(`output.chunkFilename`, err)
	}
	if a, b, ok := cfg.Output.Filename.Unique(cfg.Names()); !ok {
		return nil, configErr(`output.filename`, fmt.Errorf(`entries %q and %q produce the same file`, a, b))
	}
	if !cfg.Output.ChunkFilename.Distinguishes() {
		return nil, configErr(`output.chunkFilename`, fmt.Errorf(`pattern needs [id] or a hash placeholder`))
	}

	switch mode {
	case Production:
		cfg.Output.PublicPath = p.PublicPath.Build
	case Development:
		cfg.Output.PublicPath = p.PublicPath.Dev
	}

	for i, rx := range cfg.NoParse {
		if _, err = compile(rx); err != nil {
			return nil, configErr(fmt.Sprintf(`noParse[%d]`, i), err)
		}
	}

	cfg.Rules = make([]Rule, len(p.Rules))
	for i, rule := range p.Rules {
		field := fmt.Sprintf(`rules[%d]`, i)
		if _, err = compile(rule.Test); err != nil {
			return nil, configErr(field+`.test`, err)
		}
		rule.Include = slices.Clone(rule.Include)
		for j, dir := range rule.Include {
			dir = join(root, dir)
			if err = requireDir(dir); err != nil {
				return nil, configErr(fmt.Sprintf(`%s.include[%d]`, field, j), err)
			}
			rule.Include[j] = dir
		}
		if len(rule.Use) == 0 {
			return nil, configErr(field+`.use`, fmt.Errorf(`rule has no transforms`))
		}
		rule.Use = slices.Clone(rule.Use)
		for j := range rule.Use {
			rule.Use[j].Options = maps.Clone(rule.Use[j].Options)
		}
		cfg.Rules[i] = rule
	}

	for token, target := range p.Alias {
		if token == `` {
			return nil, configErr(`resolve.alias`, fmt.Errorf(`alias token is empty`))
		}
		if isPath(target) {
			target = join(root, target)
			if _, err = os.Stat(target); err != nil {
				return nil, configErr(`resolve.alias[`+token+`]`, err)
			}
		}
		cfg.Alias[token] = target
	}
	if token, err := checkAliasCycles(cfg.Alias); err != nil {
		return nil, configErr(`resolve.alias[`+token+`]`, err)
	}

	for name, global := range cfg.Externals {
		if global == `` {
			return nil, configErr(`externals[`+name+`]`, fmt.Errorf(`no global binding`))
		}
	}
	for ident, pv := range cfg.Provide {
		if !identifier.MatchString(ident) {
			return nil, configErr(`provide[`+ident+`]`, fmt.Errorf(`%q is not an identifier`, ident))
		}
		if pv.Module == `` {
			return nil, configErr(`provide[`+ident+`]`, fmt.Errorf(`no module`))
		}
	}

	maps.Copy(cfg.Define, p.Define)
	cfg.Define[`process.env.NODE_ENV`] = strconv.Quote(string(mode))
	cfg.Define[`__DEV__`] = strconv.FormatBool(mode == Development)
	return cfg, nil
}

// findModule resolves a module path the way a bundler does: the path itself if it is a file, otherwise the path with
// each extension appended in order.
func findModule(path string, extensions []string) (string, error) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path, nil
	}
	for _, ext := range extensions {
		if info, err := os.Stat(path + ext); err == nil && !info.IsDir() {
			return path + ext, nil
		}
	}
	return ``, fmt.Errorf(`%w: %s`, os.ErrNotExist, path)
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func requireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf(`%s is not a directory`, dir)
	}
	return nil
}

func join(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

func normalizeExtensions(extensions []string) []string {
	ret := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext == `` {
			continue
		}
		if ext[0] != '.' {
			ext = `.` + ext
		}
		if !slices.Contains(ret, ext) {
			ret = append(ret, ext)
		}
	}
	return ret
}
