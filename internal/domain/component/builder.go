package component

import (
	"errors"
	"fmt"
)

// Builder errors
var (
	ErrEmptyTypeID   = errors.New("descriptor type id cannot be empty")
	ErrEmptyParent   = errors.New("submodule descriptor must name a parent module")
	ErrSelfParent    = errors.New("submodule cannot be its own parent")
	ErrInvalidParent = errors.New("invalid parent type id")
)

// Builder provides a fluent API for creating descriptors
type Builder struct {
	typeID    TypeID
	name      string
	autoLoad  bool
	loadOrder int
	parent    TypeID
	submodule bool
	version   string
	labels    []string
}

// NewModule creates a builder for a top-level module descriptor.
// AutoLoad defaults to true and LoadOrder to 0.
func NewModule(id TypeID) *Builder {
	return &Builder{
		typeID:   id,
		autoLoad: true,
	}
}

// NewSubmodule creates a builder for a submodule bound to parent.
func NewSubmodule(id, parent TypeID) *Builder {
	return &Builder{
		typeID:    id,
		parent:    parent,
		submodule: true,
		autoLoad:  true,
	}
}

// Name sets the declared name
func (b *Builder) Name(n string) *Builder {
	b.name = n
	return b
}

// AutoLoad sets whether the component is constructed automatically
func (b *Builder) AutoLoad(v bool) *Builder {
	b.autoLoad = v
	return b
}

// LoadOrder sets the load order
func (b *Builder) LoadOrder(order int) *Builder {
	b.loadOrder = order
	return b
}

// Version sets the declared version
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Labels sets the labels used for filtering
func (b *Builder) Labels(labels ...string) *Builder {
	b.labels = labels
	return b
}

// Build creates the descriptor, validating required fields
func (b *Builder) Build() (Descriptor, error) {
	if !b.typeID.IsValid() {
		return Descriptor{}, ErrEmptyTypeID
	}
	if b.submodule {
		if b.parent == "" {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrEmptyParent, b.typeID)
		}
		if !b.parent.IsValid() {
			return Descriptor{}, fmt.Errorf("%w: %q", ErrInvalidParent, b.parent)
		}
		if b.parent == b.typeID {
			return Descriptor{}, fmt.Errorf("%w: %s", ErrSelfParent, b.typeID)
		}
	}

	return Descriptor{
		typeID:    b.typeID,
		name:      b.name,
		autoLoad:  b.autoLoad,
		loadOrder: b.loadOrder,
		parent:    b.parent,
		version:   b.version,
		labels:    b.labels,
	}, nil
}

// MustBuild is Build for descriptors declared in code, where an invalid
// descriptor is a programming error.
func (b *Builder) MustBuild() Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}
	return d
}
