package component

// Kind distinguishes top-level modules from submodules.
type Kind string

const (
	// KindModule is a top-level component with an independent lifecycle.
	KindModule Kind = "module"
	// KindSubmodule is a component lifecycle-bound to exactly one parent module.
	KindSubmodule Kind = "submodule"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// Descriptor is the static metadata of a discoverable component type.
// Descriptors are values; use Builder to create them.
type Descriptor struct {
	typeID    TypeID   // e.g., "sample.GameModule"
	name      string   // declared display name, may be empty
	autoLoad  bool     // false = known but never constructed automatically
	loadOrder int      // ascending; ties keep discovery order
	parent    TypeID   // parent module, submodules only
	version   string   // e.g., "1.2.0"
	labels    []string // e.g., ["core", "gameplay"]
}

// TypeID returns the component type identity.
func (d Descriptor) TypeID() TypeID {
	return d.typeID
}

// Name returns the declared name. After discovery an empty declared name is
// replaced by DefaultName.
func (d Descriptor) Name() string {
	return d.name
}

// AutoLoad reports whether the component is constructed automatically.
func (d Descriptor) AutoLoad() bool {
	return d.autoLoad
}

// LoadOrder returns the load order.
func (d Descriptor) LoadOrder() int {
	return d.loadOrder
}

// Parent returns the parent module TypeID, or "" for modules.
func (d Descriptor) Parent() TypeID {
	return d.parent
}

// Version returns the declared version.
func (d Descriptor) Version() string {
	return d.version
}

// Labels returns the descriptor labels.
func (d Descriptor) Labels() []string {
	return d.labels
}

// Kind returns KindSubmodule when a parent is set, KindModule otherwise.
func (d Descriptor) Kind() Kind {
	if d.parent != "" {
		return KindSubmodule
	}
	return KindModule
}

// IsSubmodule reports whether the descriptor has a parent.
func (d Descriptor) IsSubmodule() bool {
	return d.parent != ""
}

// HasLabels reports whether the descriptor carries ALL of the given labels.
func (d Descriptor) HasLabels(labels ...string) bool {
	set := make(map[string]bool, len(d.labels))
	for _, l := range d.labels {
		set[l] = true
	}
	for _, target := range labels {
		if !set[target] {
			return false
		}
	}
	return true
}

// withDefaultName returns a copy whose empty name is replaced by the generated default.
func (d Descriptor) withDefaultName() Descriptor {
	if d.name == "" {
		d.name = DefaultName(d.typeID)
	}
	return d
}

// DefaultName is the name generated for a descriptor that declares none.
func DefaultName(id TypeID) string {
	return id.ShortName()
}
