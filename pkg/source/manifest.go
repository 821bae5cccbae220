package source

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/hierarchy"
)

// Format is a manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", mroerrors.New(mroerrors.ErrCodeInvalidFormat, "unsupported manifest extension: %s", path)
}

// Manifest is a declarative description of a package's classes.
//
//	{
//	  "package": "shop",
//	  "modules": [
//	    {"name": "shop.models", "file": "shop/models.py", "classes": [
//	      {"name": "Item", "methods": ["save"]},
//	      {"name": "Book", "bases": ["Item"]}
//	    ]}
//	  ]
//	}
type Manifest struct {
	Package string           `json:"package,omitempty" toml:"package,omitempty" yaml:"package,omitempty"`
	Modules []ManifestModule `json:"modules" toml:"modules" yaml:"modules"`
}

// ManifestModule lists the classes of one module in declaration order.
type ManifestModule struct {
	Name    string          `json:"name" toml:"name" yaml:"name"`
	File    string          `json:"file,omitempty" toml:"file,omitempty" yaml:"file,omitempty"`
	Classes []ManifestClass `json:"classes" toml:"classes" yaml:"classes"`
}

// ManifestClass is one class entry of a [ManifestModule].
type ManifestClass struct {
	Name     string   `json:"name" toml:"name" yaml:"name"`
	Bases    []string `json:"bases,omitempty" toml:"bases,omitempty" yaml:"bases,omitempty"`
	Methods  []string `json:"methods,omitempty" toml:"methods,omitempty" yaml:"methods,omitempty"`
	Abstract []string `json:"abstract,omitempty" toml:"abstract,omitempty" yaml:"abstract,omitempty"`
}

// Declarations flattens the manifest in module then class order.
func (m *Manifest) Declarations() []hierarchy.Declaration {
	var out []hierarchy.Declaration
	for _, mod := range m.Modules {
		for _, c := range mod.Classes {
			out = append(out, hierarchy.Declaration{
				Module:   mod.Name,
				Name:     c.Name,
				Bases:    c.Bases,
				Methods:  c.Methods,
				Abstract: c.Abstract,
				File:     mod.File,
			})
		}
	}
	return out
}

// NewManifest groups declarations by module, keeping first-seen module order.
func NewManifest(pkg string, decls []hierarchy.Declaration) *Manifest {
	m := &Manifest{Package: pkg, Modules: []ManifestModule{}}
	idx := make(map[string]int)
	for _, d := range decls {
		i, ok := idx[d.Module]
		if !ok {
			i = len(m.Modules)
			idx[d.Module] = i
			m.Modules = append(m.Modules, ManifestModule{Name: d.Module, File: d.File})
		}
		m.Modules[i].Classes = append(m.Modules[i].Classes, ManifestClass{
			Name:     d.Name,
			Bases:    d.Bases,
			Methods:  d.Methods,
			Abstract: d.Abstract,
		})
	}
	return m
}

// ReadManifest decodes a manifest from r.
//
// Module and class names are not validated here; the registry rejects
// invalid declarations when it is populated. ReadManifest does not close r.
func ReadManifest(r io.Reader, format Format) (*Manifest, error) {
	var m Manifest
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&m)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&m)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&m)
	default:
		return nil, mroerrors.New(mroerrors.ErrCodeInvalidFormat, "unsupported manifest format: %q", format)
	}
	if err != nil {
		return nil, mroerrors.Wrap(mroerrors.ErrCodeInvalidManifest, err, "decode %s manifest", format)
	}
	for i, mod := range m.Modules {
		if mod.Name == "" {
			return nil, mroerrors.New(mroerrors.ErrCodeInvalidManifest, "module %d has no name", i)
		}
	}
	return &m, nil
}

// WriteManifest encodes m in the given format and writes it to w.
func WriteManifest(w io.Writer, m *Manifest, format Format) error {
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(m)
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(m); err == nil {
			err = enc.Close()
		}
	default:
		return mroerrors.New(mroerrors.ErrCodeInvalidFormat, "unsupported manifest format: %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest file, picking the format from its extension.
func LoadManifest(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadManifest(f, format)
}

// SaveManifest writes m to path, picking the format from its extension.
func SaveManifest(path string, m *Manifest) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteManifest(f, m, format)
}
