// Package manifest records which files a build produced for each entry point, so that pages can refer to hashed
// filenames without guessing them.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/swdunlop/pack-go/pack"
	"github.com/zeebo/blake3"
)

// Filename is the name of the manifest written into the output directory.
const Filename = `manifest.json`

// A Manifest maps entry names to their bundles and lists the chunks shared between them.
type Manifest struct {
	PublicPath string           `json:"publicPath"`
	Entries    map[string]Asset `json:"entries"`
	Chunks     []Asset          `json:"chunks,omitempty"`
}

// An Asset is one emitted file.
type Asset struct {
	File    string   `json:"file"` // relative to the output directory, with forward slashes
	URL     string   `json:"url"`  // public path joined with File
	Bytes   int      `json:"bytes"`
	Hash    string   `json:"hash"` // BLAKE3-256 of the content, hex encoded
	Imports []string `json:"imports,omitempty"`
}

// Metafile is the subset of the esbuild metafile used to build a manifest.
type Metafile struct {
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileOutput describes one output of the metafile.
type MetafileOutput struct {
	Bytes      int              `json:"bytes"`
	EntryPoint string           `json:"entryPoint,omitempty"`
	Imports    []MetafileImport `json:"imports"`
}

// MetafileImport is an import from one output to another.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// New builds a manifest from a metafile.  Metafile paths are relative to the project root.  Contents maps absolute
// output paths to their content; outputs without content are hashed from disk.
func New(cfg *pack.Config, metafile []byte, contents map[string][]byte) (*Manifest, error) {
	var meta Metafile
	if err := json.Unmarshal(metafile, &meta); err != nil {
		return nil, fmt.Errorf(`parsing metafile: %w`, err)
	}

	entries := make(map[string]string, len(cfg.Entry))
	for name, file := range cfg.Entry {
		rel, err := filepath.Rel(cfg.Root, file)
		if err != nil {
			return nil, err
		}
		entries[filepath.ToSlash(rel)] = name
	}

	m := &Manifest{PublicPath: cfg.Output.PublicPath, Entries: make(map[string]Asset, len(cfg.Entry))}
	for output, info := range meta.Outputs {
		if strings.HasSuffix(output, `.map`) {
			continue
		}
		abs := filepath.Join(cfg.Root, filepath.FromSlash(output))
		rel, err := filepath.Rel(cfg.Output.Dir, abs)
		if err != nil {
			return nil, err
		}
		data, ok := contents[abs]
		if !ok {
			data, err = os.ReadFile(abs)
			if err != nil {
				return nil, err
			}
		}
		file := filepath.ToSlash(rel)
		asset := Asset{
			File:  file,
			URL:   joinURL(cfg.Output.PublicPath, file),
			Bytes: len(data),
			Hash:  Hash(data),
		}
		for _, imp := range info.Imports {
			if imp.External {
				continue
			}
			impRel, err := filepath.Rel(cfg.Output.Dir, filepath.Join(cfg.Root, filepath.FromSlash(imp.Path)))
			if err != nil {
				return nil, err
			}
			asset.Imports = append(asset.Imports, filepath.ToSlash(impRel))
		}
		if name, ok := entries[info.EntryPoint]; ok && info.EntryPoint != `` {
			m.Entries[name] = asset
		} else {
			m.Chunks = append(m.Chunks, asset)
		}
	}
	sort.Slice(m.Chunks, func(i, j int) bool { return m.Chunks[i].File < m.Chunks[j].File })
	return m, nil
}

// Hash returns the hex encoded BLAKE3-256 hash of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Write writes the manifest to dir/manifest.json.
func (m *Manifest) Write(dir string) error {
	js, err := json.MarshalIndent(m, ``, `  `)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, Filename), append(js, '\n'), 0o644)
}

// Read reads a manifest written by Write.
func Read(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		return nil, err
	}
	var m Manifest
	err = json.Unmarshal(data, &m)
	if err != nil {
		return nil, fmt.Errorf(`%s: %w`, Filename, err)
	}
	return &m, nil
}

func joinURL(base, file string) string {
	if base == `` {
		return file
	}
	if strings.HasSuffix(base, `/`) {
		return base + file
	}
	return base + `/` + path.Clean(file)
}
