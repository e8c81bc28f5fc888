package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modkit/internal/domain/component"
)

// recorder collects "step:type" entries from every test component.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(step string, id component.TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, step+":"+string(id))
}

// steps returns the recorded type IDs for one step, in order.
func (r *recorder) steps(step string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := step + ":"
	var out []string
	for _, c := range r.calls {
		if len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c[len(prefix):])
		}
	}
	return out
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testComponent struct {
	id         component.TypeID
	rec        *recorder
	name       string
	initErr    error
	cleanupErr error
	panicInit  bool
	parent     component.Component
}

func (c *testComponent) Initialize(_ context.Context) error {
	c.rec.add("init", c.id)
	if c.panicInit {
		panic(fmt.Sprintf("%s exploded", c.id))
	}
	return c.initErr
}

func (c *testComponent) Cleanup(_ context.Context) error {
	c.rec.add("cleanup", c.id)
	return c.cleanupErr
}

func (c *testComponent) Name() string { return c.name }

func (c *testComponent) SetParent(p component.Component) { c.parent = p }

// hostableComponent records the handle it was attached under.
type hostableComponent struct {
	*testComponent
	attachedTo component.Handle
	attachErr  error
	provides   []component.TypeID
}

func (h *hostableComponent) AttachUnder(parent component.Handle) error {
	h.rec.add("attach", h.id)
	if h.attachErr != nil {
		return h.attachErr
	}
	h.attachedTo = parent
	return nil
}

func (h *hostableComponent) Provides() []component.TypeID { return h.provides }

// detachableComponent records leaving the host tree.
type detachableComponent struct {
	*hostableComponent
	detached bool
}

func (d *detachableComponent) Detach() {
	d.rec.add("detach", d.id)
	d.detached = true
}

// panickingSource panics while listing its modules.
type panickingSource struct{}

func (panickingSource) ID() string { return "panicky" }
func (panickingSource) Modules(context.Context) ([]component.Descriptor, error) {
	panic("enumeration exploded")
}
func (panickingSource) Submodules(context.Context) ([]component.Descriptor, error) { return nil, nil }

// incompatibleComponent fails its compatibility check.
type incompatibleComponent struct {
	*testComponent
}

func (incompatibleComponent) CheckCompatibility() error {
	return fmt.Errorf("requires library v2")
}

// harness wires a catalog of test components to a coordinator.
type harness struct {
	t       *testing.T
	rec     *recorder
	catalog *component.Catalog
	comps   map[component.TypeID]component.Component
	descs   []component.Descriptor
	errs    []error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		t:       t,
		rec:     &recorder{},
		catalog: component.NewCatalog(),
		comps:   make(map[component.TypeID]component.Component),
	}
}

// plain registers a testComponent constructor for d.
func (h *harness) plain(d component.Descriptor, opts ...func(*testComponent)) *testComponent {
	h.t.Helper()
	tc := &testComponent{id: d.TypeID(), rec: h.rec}
	for _, o := range opts {
		o(tc)
	}
	h.register(d, tc)
	return tc
}

// hostable registers a hostableComponent constructor for d.
func (h *harness) hostable(d component.Descriptor) *hostableComponent {
	h.t.Helper()
	hc := &hostableComponent{testComponent: &testComponent{id: d.TypeID(), rec: h.rec}}
	h.register(d, hc)
	return hc
}

func (h *harness) register(d component.Descriptor, c component.Component) {
	h.t.Helper()
	h.descs = append(h.descs, d)
	h.comps[d.TypeID()] = c
	if h.catalog.Has(d.TypeID()) {
		return
	}
	id := d.TypeID()
	require.NoError(h.t, h.catalog.Register(id, func(context.Context) (component.Component, error) {
		return h.comps[id], nil
	}))
}

// failing registers a constructor for d that returns err.
func (h *harness) failing(d component.Descriptor, err error) {
	h.t.Helper()
	h.descs = append(h.descs, d)
	require.NoError(h.t, h.catalog.Register(d.TypeID(), func(context.Context) (component.Component, error) {
		return nil, err
	}))
}

func (h *harness) source(id string) *component.StaticSource {
	return component.NewStaticSource(id, h.descs...)
}

func (h *harness) diagnostics() Diagnostics {
	return DiagnosticsFunc(func(err error) { h.errs = append(h.errs, err) })
}

func (h *harness) coordinator(mods ...func(*Config)) *Coordinator {
	h.t.Helper()
	cfg := Config{
		Factory:     h.catalog,
		Canon:       NewCanon(),
		Diagnostics: h.diagnostics(),
	}
	for _, m := range mods {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(h.t, err)
	return c
}

// start runs Start over the harness source and requires no state error.
func (h *harness) start(c *Coordinator) *Report {
	h.t.Helper()
	report, err := c.Start(context.Background(), h.source("test"))
	require.NoError(h.t, err)
	return report
}

func typeStrings(ids []component.TypeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// countingSource counts enumerations.
type countingSource struct {
	*component.StaticSource
	calls int
}

func (s *countingSource) Modules(ctx context.Context) ([]component.Descriptor, error) {
	s.calls++
	return s.StaticSource.Modules(ctx)
}
