package component

import (
	"context"
	"errors"
)

type markerModule struct{}

func (markerModule) Initialize(_ context.Context) error { return nil }
func (markerModule) Cleanup(_ context.Context) error    { return nil }

// fakeComponent records calls and can be told to fail or panic.
type fakeComponent struct {
	name       string
	initErr    error
	cleanupErr error
	compatErr  error
	panicInit  bool
	initCalls  int
	cleanCalls int
	parent     Component
	attachedTo Handle
	attachErr  error
	provides   []TypeID
}

func (f *fakeComponent) Initialize(_ context.Context) error {
	f.initCalls++
	if f.panicInit {
		panic("boom")
	}
	return f.initErr
}

func (f *fakeComponent) Cleanup(_ context.Context) error {
	f.cleanCalls++
	return f.cleanupErr
}

func (f *fakeComponent) Name() string { return f.name }

func (f *fakeComponent) SetParent(p Component) { f.parent = p }

// compatComponent adds the Compatible capability.
type compatComponent struct {
	*fakeComponent
}

func (c compatComponent) CheckCompatibility() error { return c.compatErr }

// hostComponent adds the Hostable and Provider capabilities.
type hostComponent struct {
	*fakeComponent
}

func (h hostComponent) AttachUnder(parent Handle) error {
	if h.attachErr != nil {
		return h.attachErr
	}
	h.attachedTo = parent
	return nil
}

func (h hostComponent) Provides() []TypeID { return h.provides }

// failingSource fails enumeration of modules or submodules.
type failingSource struct {
	id       string
	failSubs bool
	calls    int
	descs    []Descriptor
}

var errEnumerate = errors.New("enumerate failed")

func (s *failingSource) ID() string { return s.id }

func (s *failingSource) Modules(_ context.Context) ([]Descriptor, error) {
	s.calls++
	if !s.failSubs {
		return nil, errEnumerate
	}
	return s.descs, nil
}

func (s *failingSource) Submodules(_ context.Context) ([]Descriptor, error) {
	return nil, errEnumerate
}
