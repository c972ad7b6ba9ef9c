// Package project loads the inputs of a build from a project directory: an optional pack.jsonc file that overrides the
// default project literals, and an optional .env file that supplies NODE_ENV and friends.
//
// The project file is JSON extended with comments and trailing commas:
//
//	{
//	  // served from a CDN in production
//	  "publicPath": {"build": "https://cdn.example.com/app/", "dev": "/"},
//	  "externals": {"jquery": "jQuery"},
//	}
//
// Top level fields that are present replace the defaults wholesale; fields that are absent keep them.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/swdunlop/pack-go/pack"
	"github.com/tidwall/jsonc"
)

// Filenames are the project files recognized by Load, in order of preference.
var Filenames = []string{`pack.jsonc`, `pack.json`}

// Load returns the project literals for the project rooted at dir.  If no project file exists, the defaults are
// returned.
func Load(dir string) (pack.Project, error) {
	for _, name := range Filenames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return pack.Project{}, fmt.Errorf(`reading %s: %w`, path, err)
		}
		p, err := Parse(data)
		if err != nil {
			return pack.Project{}, fmt.Errorf(`%s: %w`, path, err)
		}
		return p, nil
	}
	return pack.DefaultProject(), nil
}

// Parse strips comments and trailing commas from data and overlays the result on the default project.
func Parse(data []byte) (pack.Project, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &fields); err != nil {
		return pack.Project{}, fmt.Errorf(`parsing project: %w`, err)
	}
	p := pack.DefaultProject()
	for key, raw := range fields {
		var err error
		switch key {
		case `entry`:
			p.Entry = nil
			err = json.Unmarshal(raw, &p.Entry)
		case `output`:
			err = json.Unmarshal(raw, &p.Output) // absent output fields keep their defaults
		case `publicPath`:
			err = json.Unmarshal(raw, &p.PublicPath)
		case `noParse`:
			p.NoParse = nil
			err = json.Unmarshal(raw, &p.NoParse)
		case `rules`:
			p.Rules = nil
			err = json.Unmarshal(raw, &p.Rules)
		case `extensions`:
			p.Extensions = nil
			err = json.Unmarshal(raw, &p.Extensions)
		case `alias`:
			p.Alias = nil
			err = json.Unmarshal(raw, &p.Alias)
		case `externals`:
			p.Externals = nil
			err = json.Unmarshal(raw, &p.Externals)
		case `provide`:
			p.Provide = nil
			err = json.Unmarshal(raw, &p.Provide)
		case `define`:
			p.Define = nil
			err = json.Unmarshal(raw, &p.Define)
		default:
			err = errors.New(`unknown field`)
		}
		if err != nil {
			return pack.Project{}, fmt.Errorf(`project field %q: %w`, key, err)
		}
	}
	return p, nil
}

// LoadEnv loads dir/.env into the process environment without overriding variables that are already set.  A missing
// file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, `.env`)
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Options returns the pack options for the project rooted at dir.
func Options(dir string) ([]pack.Option, error) {
	p, err := Load(dir)
	if err != nil {
		return nil, err
	}
	return []pack.Option{pack.Root(dir), pack.WithProject(p)}, nil
}
