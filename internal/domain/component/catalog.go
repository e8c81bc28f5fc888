package component

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Catalog errors
var (
	ErrUnknownType    = errors.New("no constructor registered for type")
	ErrNilComponent   = errors.New("constructor returned nil component")
	ErrNilConstructor = errors.New("constructor cannot be nil")
	ErrDuplicateCtor  = errors.New("constructor already registered for type")
)

// Factory produces a new component for a TypeID.
type Factory interface {
	New(ctx context.Context, id TypeID) (Component, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, id TypeID) (Component, error)

// New calls f.
func (f FactoryFunc) New(ctx context.Context, id TypeID) (Component, error) {
	return f(ctx, id)
}

// Constructor builds one component type.
type Constructor func(ctx context.Context) (Component, error)

// Catalog is a Factory over explicitly registered constructors.
type Catalog struct {
	mu    sync.RWMutex
	ctors map[TypeID]Constructor
}

var _ Factory = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{ctors: make(map[TypeID]Constructor)}
}

// Register adds a constructor for id.
func (c *Catalog) Register(id TypeID, ctor Constructor) error {
	if !id.IsValid() {
		return ErrEmptyTypeID
	}
	if ctor == nil {
		return ErrNilConstructor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.ctors[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCtor, id)
	}
	c.ctors[id] = ctor
	return nil
}

// New constructs the component registered for id.
func (c *Catalog) New(ctx context.Context, id TypeID) (comp Component, err error) {
	c.mu.RLock()
	ctor, ok := c.ctors[id]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}

	defer func() {
		if r := recover(); r != nil {
			comp, err = nil, Recovered(r)
		}
	}()
	comp, err = ctor(ctx)
	if err != nil {
		return nil, err
	}
	if isNil(comp) {
		return nil, fmt.Errorf("%w: %s", ErrNilComponent, id)
	}
	return comp, nil
}

// isNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, func or channel.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Has reports whether a constructor is registered for id.
func (c *Catalog) Has(id TypeID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.ctors[id]
	return ok
}

// Types returns the registered TypeIDs sorted lexically.
func (c *Catalog) Types() []TypeID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]TypeID, 0, len(c.ctors))
	for id := range c.ctors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Register adds a constructor for TypeOf[T]() and returns that TypeID.
func Register[T Component](c *Catalog, ctor func(ctx context.Context) (T, error)) (TypeID, error) {
	id := TypeOf[T]()
	if ctor == nil {
		return id, ErrNilConstructor
	}
	return id, c.Register(id, func(ctx context.Context) (Component, error) {
		v, err := ctor(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}
