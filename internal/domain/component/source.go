package component

import "context"

// Source supplies component descriptors to the Registry.
type Source interface {
	// ID is the identity the Registry deduplicates on.
	ID() string
	// Modules enumerates top-level module descriptors in discovery order.
	Modules(ctx context.Context) ([]Descriptor, error)
	// Submodules enumerates submodule descriptors in discovery order.
	Submodules(ctx context.Context) ([]Descriptor, error)
}

// StaticSource is a Source over descriptors declared in code.
type StaticSource struct {
	id         string
	modules    []Descriptor
	submodules []Descriptor
}

var _ Source = (*StaticSource)(nil)

// NewStaticSource creates a source with the given identity. Descriptors are
// routed to Modules or Submodules by Kind, keeping their relative order.
func NewStaticSource(id string, descs ...Descriptor) *StaticSource {
	s := &StaticSource{id: id}
	for _, d := range descs {
		if d.IsSubmodule() {
			s.submodules = append(s.submodules, d)
		} else {
			s.modules = append(s.modules, d)
		}
	}
	return s
}

// ID returns the source identity.
func (s *StaticSource) ID() string {
	return s.id
}

// Modules returns a copy of the module descriptors.
func (s *StaticSource) Modules(_ context.Context) ([]Descriptor, error) {
	return append([]Descriptor(nil), s.modules...), nil
}

// Submodules returns a copy of the submodule descriptors.
func (s *StaticSource) Submodules(_ context.Context) ([]Descriptor, error) {
	return append([]Descriptor(nil), s.submodules...), nil
}
