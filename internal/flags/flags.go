// Package flags resolves the `flags:` config section against the set of
// switches the coordinator understands.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/modkit/internal/log"
)

const (
	// FlagLocatorAutoRegister registers every constructed component in the
	// service locator under its own TypeID and the capabilities it Provides.
	FlagLocatorAutoRegister = "locator-auto-register"

	// FlagStrictHosting treats a failed AttachUnder as a construction failure:
	// the instance is dropped before initialize instead of kept unattached.
	FlagStrictHosting = "strict-hosting"
)

// Definition describes one known flag.
type Definition struct {
	Name    string
	Default bool
	Help    string
}

// Known lists every flag the coordinator reads, sorted by name.
var Known = []Definition{
	{Name: FlagLocatorAutoRegister, Default: true, Help: "register constructed components in the service locator"},
	{Name: FlagStrictHosting, Default: false, Help: "drop components whose AttachUnder fails"},
}

// Defaults returns the value of every known flag as written into a fresh
// config file.
func Defaults() map[string]bool {
	out := make(map[string]bool, len(Known))
	for _, d := range Known {
		out[d.Name] = d.Default
	}
	return out
}

func lookup(name string) (Definition, bool) {
	i := slices.IndexFunc(Known, func(d Definition) bool { return d.Name == name })
	if i < 0 {
		return Definition{}, false
	}
	return Known[i], true
}

// IsKnown reports whether name is in Known.
func IsKnown(name string) bool {
	_, ok := lookup(name)
	return ok
}

// Registry is an immutable view of configured flag values. Known flags that
// the config leaves out take their default. Names the coordinator does not
// know are kept so callers can warn about them, but never read as enabled.
type Registry struct {
	values  map[string]bool
	unknown []string
}

// New resolves configured against Known. configured is not retained.
func New(configured map[string]bool) *Registry {
	r := &Registry{values: Defaults()}
	for name, on := range configured {
		if _, ok := lookup(name); !ok {
			r.unknown = append(r.unknown, name)
			continue
		}
		r.values[name] = on
	}
	slices.Sort(r.unknown)
	if len(r.unknown) > 0 {
		log.Warn(log.CatConfig, "Unknown feature flags in config", "flags", r.unknown)
	}
	log.Debug(log.CatConfig, "Feature flags resolved", "enabled", r.EnabledNames())
	return r
}

// Enabled reports the value of a known flag. A nil Registry reports every
// flag at its default; unknown names are always false.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		d, _ := lookup(name)
		return d.Default
	}
	return r.values[name]
}

func (r *Registry) EnabledNames() []string {
	if r == nil {
		return nil
	}
	var names []string
	for name, on := range r.values {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Unknown returns configured names that are not in Known, sorted.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.unknown)
}

// All returns a copy of the resolved values of every known flag.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return Defaults()
	}
	return maps.Clone(r.values)
}
