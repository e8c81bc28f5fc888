// Package manifest loads component descriptors from YAML and HCL files.
//
// A manifest declares modules and submodules by TypeID; the types themselves
// must be registered in the component Catalog the coordinator constructs from.
// Each file becomes one component.Source whose ID embeds the content digest,
// so an edited manifest is a new source to the registry and a rescan picks up
// only the TypeIDs it has not seen.
//
// YAML:
//
//	modules:
//	  - type: sample.GameModule
//	    name: Game
//	    load_order: 1
//	submodules:
//	  - type: sample.PlayerStats
//	    parent: sample.GameModule
//
// HCL:
//
//	module "sample.GameModule" {
//	  name       = "Game"
//	  load_order = 1
//	}
//
//	submodule "sample.PlayerStats" {
//	  parent    = "sample.GameModule"
//	  auto_load = lookup(env, "MODKIT_STATS", "1") == "1"
//	}
package manifest

import (
	"errors"
	"fmt"

	"github.com/zjrosen/modkit/internal/domain/component"
)

// Manifest errors
var (
	ErrUnknownFormat = errors.New("unknown manifest format")
	ErrInvalidEntry  = errors.New("invalid manifest entry")
)

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// Entry is one declared component as written in a manifest.
type Entry struct {
	Type      string   `yaml:"type"`
	Name      string   `yaml:"name,omitempty"`
	Parent    string   `yaml:"parent,omitempty"`
	AutoLoad  *bool    `yaml:"auto_load,omitempty"`
	LoadOrder int      `yaml:"load_order,omitempty"`
	Version   string   `yaml:"version,omitempty"`
	Labels    []string `yaml:"labels,omitempty"`
}

// File is a decoded manifest.
type File struct {
	Modules    []Entry `yaml:"modules"`
	Submodules []Entry `yaml:"submodules"`
}

// Descriptors converts every entry to a component.Descriptor. Modules come
// first, each group in file order. All invalid entries are reported together.
func (f *File) Descriptors() (modules, submodules []component.Descriptor, err error) {
	if f == nil {
		return nil, nil, nil
	}

	var errs []error
	for i, e := range f.Modules {
		if e.Parent != "" {
			errs = append(errs, fmt.Errorf("%w: modules[%d] %q: modules cannot declare a parent", ErrInvalidEntry, i, e.Type))
			continue
		}
		d, err := e.descriptor(component.NewModule(component.TypeID(e.Type)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: modules[%d] %q: %w", ErrInvalidEntry, i, e.Type, err))
			continue
		}
		modules = append(modules, d)
	}
	for i, e := range f.Submodules {
		d, err := e.descriptor(component.NewSubmodule(component.TypeID(e.Type), component.TypeID(e.Parent)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: submodules[%d] %q: %w", ErrInvalidEntry, i, e.Type, err))
			continue
		}
		submodules = append(submodules, d)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return modules, submodules, nil
}

func (e Entry) descriptor(b *component.Builder) (component.Descriptor, error) {
	b = b.Name(e.Name).LoadOrder(e.LoadOrder).Version(e.Version)
	if e.AutoLoad != nil {
		b = b.AutoLoad(*e.AutoLoad)
	}
	if len(e.Labels) > 0 {
		b = b.Labels(e.Labels...)
	}
	return b.Build()
}

// Parse decodes data in the given format. filename is used in diagnostics.
func Parse(format Format, filename string, data []byte, opts ParseOptions) (*File, error) {
	switch format {
	case FormatYAML:
		return parseYAML(filename, data)
	case FormatHCL:
		return parseHCL(filename, data, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
