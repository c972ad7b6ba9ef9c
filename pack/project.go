package pack

import (
	"maps"
	"slices"
)

// A Project holds the mode independent literals of a build.  Paths are relative to the project root unless they are
// absolute.
type Project struct {
	Entry      map[string]string    `json:"entry"`
	Output     ProjectOutput        `json:"output"`
	PublicPath PublicPaths          `json:"publicPath"`
	NoParse    []string             `json:"noParse"`
	Rules      []Rule               `json:"rules"`
	Extensions []string             `json:"extensions"`
	Alias      map[string]string    `json:"alias"`
	Externals  map[string]string    `json:"externals"`
	Provide    map[string]Provision `json:"provide"`
	Define     map[string]string    `json:"define"`
}

// ProjectOutput is the unresolved form of Output.
type ProjectOutput struct {
	Dir           string  `json:"dir"`
	Filename      Pattern `json:"filename"`
	ChunkFilename Pattern `json:"chunkFilename"`
}

// PublicPaths holds the public path for each mode.
type PublicPaths struct {
	Build string `json:"build"`
	Dev   string `json:"dev"`
}

// DefaultProject returns the literals for a conventional project: a single "index" entry in src, output to dist, and
// rules for scripts, HTML and static assets.
func DefaultProject() Project {
	return Project{
		Entry: map[string]string{`index`: `src/index`},
		Output: ProjectOutput{
			Dir:           `dist`,
			Filename:      `[name].js`,
			ChunkFilename: `[chunkhash].[id].js`,
		},
		PublicPath: PublicPaths{Build: `/static/`, Dev: `/`},
		// these are loaded prebuilt and import nothing.
		NoParse: []string{`react|react-dom`},
		Rules: []Rule{
			{
				Test:    `\.jsx?$`,
				Include: []string{`src`, `test`},
				Use:     []Transform{{Loader: `babel-loader`}, {Loader: `eslint-loader`}},
			},
			{
				Test: `\.(html)$`,
				Use: []Transform{{Loader: `html-loader`, Options: map[string]any{
					`attrs`:    []any{`img:src`},
					`minimize`: true,
				}}},
			},
			{
				Test: `\.(png|jpg|jpeg|gif|eot|ttf|woff|woff2|svg|svgz)(\?.+)?$`,
				Use:  []Transform{{Loader: `url-loader`, Options: map[string]any{`limit`: 10000}}},
			},
		},
		Extensions: []string{`.js`, `.jsx`, `.json`, `.less`, `.scss`, `.css`},
		Alias: map[string]string{
			`~`:         `./src`,
			`react`:     `react/dist/react.min`,
			`react-dom`: `react-dom/dist/react-dom.min`,
			`utils`:     `./utils`,
		},
		Externals: map[string]string{},
		Provide: map[string]Provision{
			`Promise`: {Module: `es6-promise`},
			`fetch`:   {Module: `whatwg-fetch`, Export: `fetch`},
		},
		Define: map[string]string{},
	}
}

func (p Project) clone() Project {
	p.Entry = maps.Clone(p.Entry)
	p.NoParse = slices.Clone(p.NoParse)
	p.Rules = slices.Clone(p.Rules)
	p.Extensions = slices.Clone(p.Extensions)
	p.Alias = maps.Clone(p.Alias)
	p.Externals = maps.Clone(p.Externals)
	p.Provide = maps.Clone(p.Provide)
	p.Define = maps.Clone(p.Define)
	return p
}
