package component

import (
	"slices"
	"sync"
)

// Store owns constructed instances, indexed by TypeID and by parent TypeID.
// Reads are safe concurrently with each other; writes happen only on the
// goroutine that drives the lifecycle.
type Store struct {
	mu       sync.RWMutex
	byType   map[TypeID]*Instance
	order    []TypeID               // first-put order of every TypeID
	children map[TypeID][]*Instance // parent TypeID -> submodules in put order
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byType:   make(map[TypeID]*Instance),
		children: make(map[TypeID][]*Instance),
	}
}

// Put stores a module instance. A second Put for the same TypeID replaces the
// first and returns a *DuplicateRegistrationWarning.
func (s *Store) Put(inst *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(inst)
}

func (s *Store) put(inst *Instance) error {
	if inst == nil {
		return ErrNilComponent
	}
	id := inst.TypeID()
	prev, exists := s.byType[id]
	s.byType[id] = inst
	if !exists {
		s.order = append(s.order, id)
		return nil
	}

	// Drop the replaced instance from its parent's child list.
	if prev.Kind() == KindSubmodule {
		parent := prev.Descriptor().Parent()
		s.children[parent] = slices.DeleteFunc(s.children[parent], func(c *Instance) bool { return c == prev })
	}
	return &DuplicateRegistrationWarning{TypeID: id, Replaced: prev.Name(), Winner: inst.Name()}
}

// PutChild stores a submodule instance under parent.
func (s *Store) PutChild(parent TypeID, inst *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.put(inst)
	if inst != nil {
		s.children[parent] = append(s.children[parent], inst)
	}
	return err
}

// Get returns the instance stored for id.
func (s *Store) Get(id TypeID) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.byType[id]
	return inst, ok
}

// ChildrenOf returns the submodules stored under parent, in put order.
// An unknown parent yields an empty slice.
func (s *Store) ChildrenOf(parent TypeID) []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.children[parent])
}

// Modules returns module instances in first-put order.
func (s *Store) Modules() []*Instance {
	return s.filter(KindModule)
}

// Submodules returns submodule instances in first-put order.
func (s *Store) Submodules() []*Instance {
	return s.filter(KindSubmodule)
}

// All returns every instance in first-put order.
func (s *Store) All() []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Instance, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.byType[id])
	}
	return result
}

func (s *Store) filter(kind Kind) []*Instance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*Instance
	for _, id := range s.order {
		if inst := s.byType[id]; inst.Kind() == kind {
			result = append(result, inst)
		}
	}
	return result
}

// Remove deletes the instance stored for id.
func (s *Store) Remove(id TypeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.byType[id]
	if !ok {
		return
	}
	delete(s.byType, id)
	s.order = slices.DeleteFunc(s.order, func(t TypeID) bool { return t == id })
	if inst.Kind() == KindSubmodule {
		parent := inst.Descriptor().Parent()
		s.children[parent] = slices.DeleteFunc(s.children[parent], func(c *Instance) bool { return c == inst })
	}
	delete(s.children, id)
}

// Len returns the number of stored instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byType)
}

// Clear removes every instance.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[TypeID]*Instance)
	s.children = make(map[TypeID][]*Instance)
	s.order = nil
}

// Lookup returns the component stored for TypeOf[T]() as T.
func Lookup[T any](s *Store) (T, bool) {
	inst, ok := s.Get(TypeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return As[T](inst)
}
