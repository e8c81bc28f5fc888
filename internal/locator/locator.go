// Package locator provides a type-keyed side registry of services.
//
// Any component can be retrieved by a capability TypeID regardless of whether it
// is a module or a submodule. The locator never drives lifecycle; the lifecycle
// coordinator registers and unregisters the entries it owns.
package locator

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/log"
)

// Locator errors
var (
	ErrNilService    = errors.New("service cannot be nil")
	ErrInvalidTypeID = errors.New("capability type id cannot be empty")
	ErrNotFound      = errors.New("service not registered")
	ErrWrongType     = errors.New("registered service has a different type")
)

// Locator maps capability TypeIDs to service values. Last write wins.
type Locator struct {
	mu       sync.RWMutex
	services map[component.TypeID]any
}

// New creates an empty locator.
func New() *Locator {
	return &Locator{services: make(map[component.TypeID]any)}
}

// Register stores v under id, replacing any previous value.
func (l *Locator) Register(id component.TypeID, v any) error {
	if !id.IsValid() {
		return ErrInvalidTypeID
	}
	if v == nil {
		return ErrNilService
	}

	l.mu.Lock()
	_, replaced := l.services[id]
	l.services[id] = v
	l.mu.Unlock()

	if replaced {
		log.Debug(log.CatLocator, "Service replaced", "type", id)
	} else {
		log.Debug(log.CatLocator, "Service registered", "type", id)
	}
	return nil
}

// RegisterInferType stores v under its own dynamic TypeID and returns it.
func (l *Locator) RegisterInferType(v any) (component.TypeID, error) {
	id := component.TypeIDOf(v)
	return id, l.Register(id, v)
}

// Resolve returns the value registered under id.
func (l *Locator) Resolve(id component.TypeID) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.services[id]
	return v, ok
}

// Unregister removes id. Unknown ids are ignored.
func (l *Locator) Unregister(id component.TypeID) {
	l.mu.Lock()
	_, ok := l.services[id]
	delete(l.services, id)
	l.mu.Unlock()

	if ok {
		log.Debug(log.CatLocator, "Service unregistered", "type", id)
	}
}

// UnregisterValue removes id only while v is still the registered value, so an
// owner never removes an entry someone else has overwritten. It reports whether
// the entry was removed.
func (l *Locator) UnregisterValue(id component.TypeID, v any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.services[id]
	if !ok || !same(cur, v) {
		return false
	}
	delete(l.services, id)
	return true
}

// List returns the registered TypeIDs sorted lexically.
func (l *Locator) List() []component.TypeID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]component.TypeID, 0, len(l.services))
	for id := range l.services {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered services.
func (l *Locator) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.services)
}

// Provide registers v under TypeOf[T]().
func Provide[T any](l *Locator, v T) error {
	return l.Register(component.TypeOf[T](), v)
}

// Get resolves TypeOf[T]() as T.
func Get[T any](l *Locator) (T, bool) {
	var zero T
	v, ok := l.Resolve(component.TypeOf[T]())
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Require is Get that returns an error naming the missing or mistyped capability.
func Require[T any](l *Locator) (T, error) {
	var zero T
	id := component.TypeOf[T]()
	v, ok := l.Resolve(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrWrongType, id, v)
	}
	return t, nil
}

// same compares two values by identity when they are comparable.
func same(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
