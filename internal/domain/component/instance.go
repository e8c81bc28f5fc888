package component

import (
	"context"
	"errors"
	"sync"
)

// Instance errors
var (
	ErrNameLocked    = errors.New("name cannot change after first initialize")
	ErrParentBound   = errors.New("parent already bound")
	ErrNotSubmodule  = errors.New("only submodule instances have a parent")
	ErrNilParent     = errors.New("parent instance cannot be nil")
	ErrWrongParent   = errors.New("parent type does not match descriptor")
	ErrNilDescriptor = errors.New("instance requires a valid descriptor")
)

// Component is the behavior every module and submodule implements.
type Component interface {
	Initialize(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Named is implemented by components that carry their own name.
// A non-empty Name overrides the declared descriptor name.
type Named interface {
	Name() string
}

// Handle is an opaque reference into a host composition tree.
type Handle any

// Hostable is implemented by components that can be attached into a host
// composition tree.
type Hostable interface {
	AttachUnder(parent Handle) error
}

// Detachable is implemented by Hostable components that can leave the host
// composition tree again.
type Detachable interface {
	Detach()
}

// Compatible is implemented by components that must pass a check before they
// are initialized.
type Compatible interface {
	CheckCompatibility() error
}

// Provider is implemented by components that serve capability types in
// addition to their own TypeID.
type Provider interface {
	Provides() []TypeID
}

// ParentAware is implemented by submodules that want their parent component.
type ParentAware interface {
	SetParent(parent Component)
}

// Instance is a constructed component together with its lifecycle state.
type Instance struct {
	descriptor Descriptor
	component  Component

	mu          sync.RWMutex
	name        string
	initialized bool
	everInit    bool
	parent      *Instance
}

// NewInstance wraps a constructed component. The name is the component's own
// name when it implements Named with a non-empty value, otherwise the
// declared name, otherwise the generated default.
func NewInstance(desc Descriptor, c Component) (*Instance, error) {
	if !desc.TypeID().IsValid() {
		return nil, ErrNilDescriptor
	}
	if isNil(c) {
		return nil, ErrNilComponent
	}

	name := desc.Name()
	if n, ok := c.(Named); ok && n.Name() != "" {
		name = n.Name()
	}
	if name == "" {
		name = DefaultName(desc.TypeID())
	}

	return &Instance{
		descriptor: desc,
		component:  c,
		name:       name,
	}, nil
}

// TypeID returns the instance identity.
func (i *Instance) TypeID() TypeID {
	return i.descriptor.TypeID()
}

// Descriptor returns the descriptor the instance was constructed from.
func (i *Instance) Descriptor() Descriptor {
	return i.descriptor
}

// Kind returns the descriptor kind.
func (i *Instance) Kind() Kind {
	return i.descriptor.Kind()
}

// Component returns the wrapped component.
func (i *Instance) Component() Component {
	return i.component
}

// Name returns the resolved name.
func (i *Instance) Name() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.name
}

// SetName overrides the name. It fails once the instance has been initialized.
func (i *Instance) SetName(name string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.everInit {
		return ErrNameLocked
	}
	i.name = name
	return nil
}

// Initialized reports whether Initialize has succeeded without a later Cleanup.
func (i *Instance) Initialized() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.initialized
}

// Parent returns the module this submodule was resolved against, or nil.
func (i *Instance) Parent() *Instance {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.parent
}

// BindParent sets the back-reference to the parent module. It may be called
// once; the reference is never reassigned.
func (i *Instance) BindParent(parent *Instance) error {
	if !i.descriptor.IsSubmodule() {
		return ErrNotSubmodule
	}
	if parent == nil {
		return ErrNilParent
	}
	if parent.TypeID() != i.descriptor.Parent() {
		return ErrWrongParent
	}

	i.mu.Lock()
	if i.parent != nil {
		i.mu.Unlock()
		return ErrParentBound
	}
	i.parent = parent
	i.mu.Unlock()

	if pa, ok := i.component.(ParentAware); ok {
		pa.SetParent(parent.component)
	}
	return nil
}

// Initialize runs the component's Initialize. It is a no-op when the instance
// is already initialized. A component implementing Compatible is checked first
// and an *IncompatibleError is returned without calling Initialize. The flag
// is only set when Initialize succeeds; panics are returned as errors.
func (i *Instance) Initialize(ctx context.Context) error {
	if i.Initialized() {
		return nil
	}

	if c, ok := i.component.(Compatible); ok {
		if err := guard(c.CheckCompatibility); err != nil {
			return &IncompatibleError{TypeID: i.TypeID(), Err: err}
		}
	}

	if err := guard(func() error { return i.component.Initialize(ctx) }); err != nil {
		return err
	}

	i.mu.Lock()
	i.initialized = true
	i.everInit = true
	i.mu.Unlock()
	return nil
}

// Cleanup runs the component's Cleanup. It is a no-op when the instance is not
// initialized. The flag is cleared even when Cleanup fails.
func (i *Instance) Cleanup(ctx context.Context) error {
	if !i.Initialized() {
		return nil
	}

	err := guard(func() error { return i.component.Cleanup(ctx) })

	i.mu.Lock()
	i.initialized = false
	i.mu.Unlock()
	return err
}

// As returns the wrapped component as T.
func As[T any](i *Instance) (T, bool) {
	var zero T
	if i == nil {
		return zero, false
	}
	v, ok := i.component.(T)
	return v, ok
}

// AttachUnder attaches the component into a host tree when it is Hostable.
// It reports false when the component is not Hostable.
func (i *Instance) AttachUnder(parent Handle) (bool, error) {
	h, ok := i.component.(Hostable)
	if !ok {
		return false, nil
	}
	if err := guard(func() error { return h.AttachUnder(parent) }); err != nil {
		return true, &AttachError{TypeID: i.TypeID(), Err: err}
	}
	return true, nil
}

// Detach removes the component from the host tree when it is Detachable.
func (i *Instance) Detach() error {
	d, ok := i.component.(Detachable)
	if !ok {
		return nil
	}
	return guard(func() error {
		d.Detach()
		return nil
	})
}

// Provides returns the capability types the component serves beyond its own.
func (i *Instance) Provides() []TypeID {
	p, ok := i.component.(Provider)
	if !ok {
		return nil
	}
	return p.Provides()
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Recovered(r)
		}
	}()
	return fn()
}
