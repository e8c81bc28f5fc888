package component

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Registry discovers descriptors from sources. Each source is scanned at most
// once for the lifetime of the Registry, and later passes only yield TypeIDs
// that no earlier pass produced.
type Registry struct {
	mu      sync.Mutex
	scanned map[string]bool
	known   map[TypeID]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		scanned: make(map[string]bool),
		known:   make(map[TypeID]bool),
	}
}

// Discover scans every source not yet scanned and returns the plan for this
// pass. A source that fails to enumerate contributes a *ScanFailure and no
// descriptors; it is not marked scanned, so a later pass may retry it.
func (r *Registry) Discover(ctx context.Context, sources ...Source) (*Plan, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		modules    []Descriptor
		submodules []Descriptor
		errs       []error
	)

	for _, src := range sources {
		if src == nil {
			continue
		}
		id := src.ID()
		if r.scanned[id] {
			continue
		}

		mods, subs, err := enumerate(ctx, src)
		if err != nil {
			errs = append(errs, &ScanFailure{SourceID: id, Err: err})
			continue
		}
		r.scanned[id] = true

		for _, d := range mods {
			if !r.known[d.TypeID()] {
				modules = append(modules, d.withDefaultName())
			}
		}
		for _, d := range subs {
			if !r.known[d.TypeID()] {
				submodules = append(submodules, d.withDefaultName())
			}
		}
	}

	for _, d := range modules {
		r.known[d.TypeID()] = true
	}
	for _, d := range submodules {
		r.known[d.TypeID()] = true
	}

	return newPlan(modules, submodules), errs
}

// enumerate lists both descriptor sets of src. A panic inside the source is
// returned as an error.
func enumerate(ctx context.Context, src Source) (mods, subs []Descriptor, err error) {
	err = guard(func() error {
		var err error
		if mods, err = src.Modules(ctx); err != nil {
			return err
		}
		subs, err = src.Submodules(ctx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return mods, subs, nil
}

// Scanned reports whether a source with the given ID has been scanned.
func (r *Registry) Scanned(sourceID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scanned[sourceID]
}

// Plan is the immutable result of one discovery pass.
type Plan struct {
	modules    []Descriptor // auto-load, sorted
	submodules []Descriptor // auto-load, sorted
	inactive   []Descriptor // auto-load disabled, sorted
}

// newPlan splits descriptors by auto-load and sorts each group by
// (LoadOrder, discovery index). Inputs must be in discovery order.
func newPlan(modules, submodules []Descriptor) *Plan {
	p := &Plan{}
	for _, d := range modules {
		if d.AutoLoad() {
			p.modules = append(p.modules, d)
		} else {
			p.inactive = append(p.inactive, d)
		}
	}
	for _, d := range submodules {
		if d.AutoLoad() {
			p.submodules = append(p.submodules, d)
		} else {
			p.inactive = append(p.inactive, d)
		}
	}

	byOrder := func(a, b Descriptor) int { return cmp.Compare(a.LoadOrder(), b.LoadOrder()) }
	slices.SortStableFunc(p.modules, byOrder)
	slices.SortStableFunc(p.submodules, byOrder)
	slices.SortStableFunc(p.inactive, byOrder)
	return p
}

// NewPlan builds a plan from descriptors in discovery order without a Registry.
// Descriptors are routed by Kind.
func NewPlan(descs ...Descriptor) *Plan {
	var modules, submodules []Descriptor
	for _, d := range descs {
		d = d.withDefaultName()
		if d.IsSubmodule() {
			submodules = append(submodules, d)
		} else {
			modules = append(modules, d)
		}
	}
	return newPlan(modules, submodules)
}

// Modules returns the auto-load module descriptors in construction order.
func (p *Plan) Modules() []Descriptor {
	if p == nil {
		return nil
	}
	return slices.Clone(p.modules)
}

// Submodules returns the auto-load submodule descriptors in construction order.
func (p *Plan) Submodules() []Descriptor {
	if p == nil {
		return nil
	}
	return slices.Clone(p.submodules)
}

// SubmodulesOf returns the auto-load submodules declaring parent, in plan order.
func (p *Plan) SubmodulesOf(parent TypeID) []Descriptor {
	if p == nil {
		return nil
	}
	var result []Descriptor
	for _, d := range p.submodules {
		if d.Parent() == parent {
			result = append(result, d)
		}
	}
	return result
}

// Inactive returns descriptors that were discovered with auto-load disabled.
func (p *Plan) Inactive() []Descriptor {
	if p == nil {
		return nil
	}
	return slices.Clone(p.inactive)
}

// All returns modules, then submodules, then inactive descriptors.
func (p *Plan) All() []Descriptor {
	if p == nil {
		return nil
	}
	all := make([]Descriptor, 0, p.Len())
	all = append(all, p.modules...)
	all = append(all, p.submodules...)
	return append(all, p.inactive...)
}

// Lookup finds a descriptor by TypeID, including inactive ones.
// When a TypeID was declared more than once the last declaration is returned.
func (p *Plan) Lookup(id TypeID) (Descriptor, bool) {
	var (
		found Descriptor
		ok    bool
	)
	for _, d := range p.All() {
		if d.TypeID() == id {
			found, ok = d, true
		}
	}
	return found, ok
}

// Len returns the total number of descriptors in the plan.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.modules) + len(p.submodules) + len(p.inactive)
}

// Append returns a new plan with other's descriptors after p's. Neither plan
// is modified and the result is not re-sorted, so each pass keeps its own order.
func (p *Plan) Append(other *Plan) *Plan {
	out := &Plan{}
	for _, src := range []*Plan{p, other} {
		if src == nil {
			continue
		}
		out.modules = append(out.modules, src.modules...)
		out.submodules = append(out.submodules, src.submodules...)
		out.inactive = append(out.inactive, src.inactive...)
	}
	return out
}
