// Package lifecycle drives component discovery, construction, initialization
// and teardown.
//
// A Coordinator owns one Store and moves through Empty -> Discovering -> Active
// -> ShuttingDown -> Empty. Every per-component failure is caught, reported to
// Diagnostics, published as an Event and collected in the phase Report; no
// failure aborts a phase.
//
// Ordering:
//   - construct: modules in plan order, then submodules in plan order
//   - initialize: modules in plan order, then submodules grouped by parent,
//     parents in module order
//   - cleanup: every submodule, then modules in construction order
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/flags"
	"github.com/zjrosen/modkit/internal/locator"
	"github.com/zjrosen/modkit/internal/log"
	"github.com/zjrosen/modkit/internal/pubsub"
	"github.com/zjrosen/modkit/internal/tracing"
)

// Coordinator errors
var (
	ErrNilFactory   = errors.New("coordinator requires a factory")
	ErrInvalidState = errors.New("invalid coordinator state")
	ErrNotCanonical = errors.New("another coordinator is canonical")
)

// Config configures a Coordinator. Only Factory is required.
type Config struct {
	// Factory constructs components by TypeID.
	Factory component.Factory

	// Registry deduplicates sources across passes. Default: a new Registry.
	Registry *component.Registry

	// Locator receives auto-registered services. Default: a new Locator.
	Locator *locator.Locator

	// Root is the host handle modules (and submodules of non-hostable
	// parents) are attached under. May be nil.
	Root component.Handle

	// Injector runs after attach and before initialize. Optional.
	Injector Injector

	// Diagnostics receives every failure. Default: LogDiagnostics.
	Diagnostics Diagnostics

	// Canon is the canonical slot. Default: DefaultCanon().
	Canon *Canon

	// Tracer creates phase and call spans. Default: no-op.
	Tracer trace.Tracer

	// Flags toggles locator auto-registration and strict hosting.
	// Default: flags.Defaults().
	Flags *flags.Registry
}

// ownedService is a locator entry registered by this coordinator.
type ownedService struct {
	id   component.TypeID
	inst *component.Instance
}

// Coordinator drives the lifecycle of the components in one Store.
// Start, Rescan and Shutdown are meant to be called from a single owning
// goroutine; the read accessors are safe from any goroutine.
type Coordinator struct {
	id       string
	factory  component.Factory
	registry *component.Registry
	locator  *locator.Locator
	root     component.Handle
	injector Injector
	diag     Diagnostics
	canon    *Canon
	tracer   trace.Tracer
	flags    *flags.Registry
	disabled bool

	store  *component.Store
	events *pubsub.Broker[Event]

	mu    sync.Mutex
	state State
	plan  *component.Plan
	cycle string
	owned []ownedService
}

// New creates a coordinator and claims the canonical slot. When the slot is
// already held, the coordinator is created disabled: Start and Shutdown become
// no-ops and it never discovers anything.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Factory == nil {
		return nil, ErrNilFactory
	}

	c := &Coordinator{
		id:       uuid.NewString(),
		factory:  cfg.Factory,
		registry: cfg.Registry,
		locator:  cfg.Locator,
		root:     cfg.Root,
		injector: cfg.Injector,
		diag:     cfg.Diagnostics,
		canon:    cfg.Canon,
		tracer:   tracing.OrNoop(cfg.Tracer),
		flags:    cfg.Flags,
		store:    component.NewStore(),
		events:   pubsub.NewBroker[Event](),
		state:    StateEmpty,
	}
	if c.registry == nil {
		c.registry = component.NewRegistry()
	}
	if c.locator == nil {
		c.locator = locator.New()
	}
	if c.diag == nil {
		c.diag = LogDiagnostics{}
	}
	if c.canon == nil {
		c.canon = DefaultCanon()
	}
	if c.flags == nil {
		c.flags = flags.New(flags.Defaults())
	}

	if !c.canon.Claim(c.id) {
		c.disabled = true
		log.Warn(log.CatLifecycle, "Coordinator disabled: another coordinator is canonical",
			"coordinator", c.id, "canonical", c.canon.Holder())
		return c, nil
	}
	log.Debug(log.CatLifecycle, "Coordinator created", "coordinator", c.id)
	return c, nil
}

// ID returns the coordinator ID.
func (c *Coordinator) ID() string { return c.id }

// Disabled reports whether the coordinator lost the canonical claim at construction.
func (c *Coordinator) Disabled() bool { return c.disabled }

// Canonical reports whether the coordinator currently holds the canonical slot.
func (c *Coordinator) Canonical() bool { return c.canon.Holder() == c.id }

// Store returns the instance store.
func (c *Coordinator) Store() *component.Store { return c.store }

// Locator returns the service locator.
func (c *Coordinator) Locator() *locator.Locator { return c.locator }

// Root returns the host root handle.
func (c *Coordinator) Root() component.Handle { return c.root }

// Events returns the lifecycle event broker.
func (c *Coordinator) Events() *pubsub.Broker[Event] { return c.events }

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Plan returns every descriptor discovered in the current cycle, one pass after
// another. Nil when Empty.
func (c *Coordinator) Plan() *component.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

// Start discovers sources, constructs every auto-load component and initializes
// them. Only valid in StateEmpty. Per-component failures are in the Report; the
// error is non-nil only for a state violation or a lost canonical claim.
func (c *Coordinator) Start(ctx context.Context, sources ...component.Source) (*Report, error) {
	if c.disabled {
		log.Warn(log.CatLifecycle, "Start ignored: coordinator is disabled", "coordinator", c.id)
		return &Report{}, nil
	}
	if !c.canon.Claim(c.id) {
		return nil, fmt.Errorf("%w: held by %s", ErrNotCanonical, c.canon.Holder())
	}
	if err := c.transition(StateEmpty, StateDiscovering); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cycle = uuid.NewString()
	c.mu.Unlock()

	return c.runPass(ctx, tracing.SpanStart, sources), nil
}

// Rescan runs an additive discovery pass while Active: sources not scanned
// before are enumerated and only TypeIDs new to this coordinator are
// constructed and initialized, in the same role order as Start. Live instances
// are untouched.
func (c *Coordinator) Rescan(ctx context.Context, sources ...component.Source) (*Report, error) {
	if c.disabled {
		return &Report{}, nil
	}
	if err := c.transition(StateActive, StateDiscovering); err != nil {
		return nil, err
	}
	return c.runPass(ctx, tracing.SpanRescan, sources), nil
}

func (c *Coordinator) runPass(ctx context.Context, spanName string, sources []component.Source) *Report {
	ctx = context.WithoutCancel(ctx)
	report := &Report{CycleID: c.cycleID()}

	ctx, span := tracing.StartPhase(ctx, c.tracer, spanName,
		attribute.String(tracing.AttrCoordinatorID, c.id),
		attribute.String(tracing.AttrCycleID, report.CycleID),
	)

	plan := c.discover(ctx, report, sources)
	c.mu.Lock()
	c.plan = c.plan.Append(plan)
	c.mu.Unlock()

	built := c.construct(ctx, plan, report)

	if err := c.transition(StateDiscovering, StateActive); err != nil {
		log.ErrorErr(log.CatLifecycle, "Pass ended outside Discovering", err, "coordinator", c.id)
	}
	c.initialize(ctx, built, report)

	span.SetAttributes(attribute.Int(tracing.AttrFailures, len(report.Failures)))
	tracing.End(span, report.Err())

	log.Info(log.CatLifecycle, "Lifecycle pass complete",
		"coordinator", c.id,
		"constructed", len(report.Constructed),
		"initialized", len(report.Initialized),
		"failures", len(report.Failures),
		"warnings", len(report.Warnings))
	return report
}

// Shutdown cleans up every submodule, then every module, clears the store,
// removes this coordinator's locator entries, returns to Empty and releases
// the canonical slot. On an Empty coordinator it only releases the slot and
// returns an empty report.
func (c *Coordinator) Shutdown(ctx context.Context) (*Report, error) {
	if c.disabled {
		return &Report{}, nil
	}

	switch state := c.State(); state {
	case StateEmpty:
		c.canon.Release(c.id)
		return &Report{}, nil
	case StateActive:
	default:
		return nil, fmt.Errorf("%w: shutdown during %s", ErrInvalidState, state)
	}
	if err := c.transition(StateActive, StateShuttingDown); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	report := &Report{CycleID: c.cycleID()}
	ctx, span := tracing.StartPhase(ctx, c.tracer, tracing.SpanShutdown,
		attribute.String(tracing.AttrCoordinatorID, c.id),
		attribute.String(tracing.AttrCycleID, report.CycleID),
	)

	c.cleanup(ctx, report)
	c.releaseServices()
	c.store.Clear()

	c.mu.Lock()
	c.plan = nil
	c.cycle = ""
	c.mu.Unlock()

	if err := c.transition(StateShuttingDown, StateEmpty); err != nil {
		log.ErrorErr(log.CatLifecycle, "Shutdown ended outside ShuttingDown", err, "coordinator", c.id)
	}
	c.canon.Release(c.id)

	span.SetAttributes(attribute.Int(tracing.AttrFailures, len(report.Failures)))
	tracing.End(span, report.Err())

	log.Info(log.CatLifecycle, "Shutdown complete",
		"coordinator", c.id,
		"cleaned_up", len(report.CleanedUp),
		"failures", len(report.Failures))
	return report, nil
}

func (c *Coordinator) cycleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

func (c *Coordinator) transition(from, to State) error {
	c.mu.Lock()
	cur := c.state
	if cur != from || !cur.CanTransitionTo(to) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s while %s", ErrInvalidState, from, to, cur)
	}
	c.state = to
	c.mu.Unlock()

	log.Debug(log.CatLifecycle, "State transition", "coordinator", c.id, "from", from, "to", to)
	c.publish(Event{Kind: EventStateChanged, From: from, To: to})
	return nil
}

func (c *Coordinator) publish(e Event) {
	e.CoordinatorID = c.id
	e.CycleID = c.cycleID()
	c.events.Publish(e.Kind.pubsubType(), e)
}

// fail reports one per-component failure or warning.
func (c *Coordinator) fail(report *Report, id component.TypeID, err error) {
	report.add(err)
	c.diag.Report(err)
	c.publish(Event{Kind: EventFailure, TypeID: id, Err: err})
}

func (c *Coordinator) discover(ctx context.Context, report *Report, sources []component.Source) *component.Plan {
	ctx, span := tracing.StartPhase(ctx, c.tracer, tracing.SpanDiscover)

	plan, errs := c.registry.Discover(ctx, sources...)
	for _, err := range errs {
		var sf *component.ScanFailure
		if errors.As(err, &sf) {
			tracing.Event(ctx, tracing.EventScanFailed, attribute.String(tracing.AttrSourceID, sf.SourceID))
		}
		c.fail(report, "", err)
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrPlanModules, len(plan.Modules())),
		attribute.Int(tracing.AttrPlanSubmodules, len(plan.Submodules())),
		attribute.Int(tracing.AttrPlanInactive, len(plan.Inactive())),
	)
	tracing.End(span, nil)

	log.Debug(log.CatRegistry, "Discovery complete",
		"sources", len(sources),
		"modules", len(plan.Modules()),
		"submodules", len(plan.Submodules()),
		"inactive", len(plan.Inactive()),
		"scan_failures", len(errs))
	return plan
}

// built holds the instances constructed in one pass, in construction order.
type built struct {
	modules    []*component.Instance
	submodules []*component.Instance
}

func (c *Coordinator) construct(ctx context.Context, plan *component.Plan, report *Report) built {
	ctx, span := tracing.StartPhase(ctx, c.tracer, tracing.SpanConstruct)
	defer tracing.End(span, nil)

	var b built
	for _, d := range plan.Modules() {
		inst, ok := c.build(ctx, d, report)
		if !ok {
			continue
		}
		prev, _ := c.store.Get(d.TypeID())
		if err := c.store.Put(inst); err != nil {
			tracing.Event(ctx, tracing.EventDuplicateType, attribute.String(tracing.AttrComponentType, d.TypeID().String()))
			c.fail(report, d.TypeID(), err)
			c.evict(prev, &b, report)
		}
		c.register(inst)
		if !c.host(ctx, inst, c.root, report) {
			continue
		}
		c.inject(ctx, inst, report)
		c.constructed(inst, report)
		b.modules = append(b.modules, inst)
	}

	for _, d := range plan.Submodules() {
		parent, ok := c.store.Get(d.Parent())
		if !ok || parent.Kind() != component.KindModule {
			tracing.Event(ctx, tracing.EventOrphanDropped, attribute.String(tracing.AttrComponentType, d.TypeID().String()))
			c.fail(report, d.TypeID(), &component.OrphanSubmoduleError{TypeID: d.TypeID(), Parent: d.Parent()})
			continue
		}
		inst, ok := c.build(ctx, d, report)
		if !ok {
			continue
		}
		if err := inst.BindParent(parent); err != nil {
			c.fail(report, d.TypeID(), &component.ConstructionError{TypeID: d.TypeID(), Kind: d.Kind(), Err: err})
			continue
		}
		prev, _ := c.store.Get(d.TypeID())
		if err := c.store.PutChild(parent.TypeID(), inst); err != nil {
			tracing.Event(ctx, tracing.EventDuplicateType, attribute.String(tracing.AttrComponentType, d.TypeID().String()))
			c.fail(report, d.TypeID(), err)
			c.evict(prev, &b, report)
		}
		c.register(inst)

		var handle component.Handle = c.root
		if _, hostable := parent.Component().(component.Hostable); hostable {
			handle = parent.Component()
		}
		if !c.host(ctx, inst, handle, report) {
			continue
		}
		c.inject(ctx, inst, report)
		c.constructed(inst, report)
		b.submodules = append(b.submodules, inst)
	}
	return b
}

// evict drops prev after a later instance with the same TypeID replaced it in
// the store. prev leaves the locator and the host tree and is not initialized.
func (c *Coordinator) evict(prev *component.Instance, b *built, report *Report) {
	if prev == nil {
		return
	}
	c.discard(prev)
	if err := prev.Detach(); err != nil {
		log.Warn(log.CatLifecycle, "Replaced instance failed to detach", "type", prev.TypeID(), "error", err)
	}

	same := func(i *component.Instance) bool { return i == prev }
	b.modules = slices.DeleteFunc(b.modules, same)
	b.submodules = slices.DeleteFunc(b.submodules, same)
	if i := slices.Index(report.Constructed, prev.TypeID()); i >= 0 {
		report.Constructed = slices.Delete(report.Constructed, i, i+1)
	}
	log.Debug(log.CatLifecycle, "Evicted replaced instance", "type", prev.TypeID(), "name", prev.Name())
}

func (c *Coordinator) constructed(inst *component.Instance, report *Report) {
	report.Constructed = append(report.Constructed, inst.TypeID())
	c.publish(Event{Kind: EventConstructed, TypeID: inst.TypeID(), Name: inst.Name()})
	log.Debug(log.CatLifecycle, "Constructed", "type", inst.TypeID(), "name", inst.Name(), "kind", inst.Kind())
}

// build constructs the component for d and wraps it in an Instance.
func (c *Coordinator) build(ctx context.Context, d component.Descriptor, report *Report) (*component.Instance, bool) {
	ctx, span := tracing.StartCall(ctx, c.tracer, "construct", d.TypeID().String(), d.Name())
	span.SetAttributes(
		attribute.String(tracing.AttrComponentKind, d.Kind().String()),
		attribute.Int(tracing.AttrLoadOrder, d.LoadOrder()),
	)
	if d.IsSubmodule() {
		span.SetAttributes(attribute.String(tracing.AttrComponentParent, d.Parent().String()))
	}

	comp, err := c.newComponent(ctx, d.TypeID())
	var inst *component.Instance
	if err == nil {
		inst, err = component.NewInstance(d, comp)
	}
	if err != nil {
		cerr := &component.ConstructionError{TypeID: d.TypeID(), Kind: d.Kind(), Err: err}
		tracing.End(span, cerr)
		c.fail(report, d.TypeID(), cerr)
		return nil, false
	}
	tracing.End(span, nil)
	return inst, true
}

func (c *Coordinator) newComponent(ctx context.Context, id component.TypeID) (comp component.Component, err error) {
	defer func() {
		if r := recover(); r != nil {
			comp, err = nil, component.Recovered(r)
		}
	}()
	return c.factory.New(ctx, id)
}

// register adds inst to the locator under its own TypeID and every capability
// it provides.
func (c *Coordinator) register(inst *component.Instance) {
	if !c.flags.Enabled(flags.FlagLocatorAutoRegister) {
		return
	}
	ids := append([]component.TypeID{inst.TypeID()}, inst.Provides()...)
	for _, id := range ids {
		if err := c.locator.Register(id, inst.Component()); err != nil {
			log.Warn(log.CatLocator, "Skipped capability registration", "type", inst.TypeID(), "capability", id, "error", err)
			continue
		}
		c.mu.Lock()
		c.owned = append(c.owned, ownedService{id: id, inst: inst})
		c.mu.Unlock()
	}
}

// host attaches inst under handle when the component is Hostable. It returns
// false when the instance was dropped under strict hosting.
func (c *Coordinator) host(ctx context.Context, inst *component.Instance, handle component.Handle, report *Report) bool {
	hosted, err := inst.AttachUnder(handle)
	if err != nil {
		c.fail(report, inst.TypeID(), err)
		if c.flags.Enabled(flags.FlagStrictHosting) {
			c.discard(inst)
			log.Warn(log.CatLifecycle, "Dropped unattached instance", "type", inst.TypeID())
			return false
		}
		return true
	}
	if hosted {
		tracing.Event(ctx, tracing.EventAttached, attribute.String(tracing.AttrComponentType, inst.TypeID().String()))
		c.publish(Event{Kind: EventAttached, TypeID: inst.TypeID(), Name: inst.Name()})
	}
	return true
}

func (c *Coordinator) inject(ctx context.Context, inst *component.Instance, report *Report) {
	if c.injector == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = component.Recovered(r)
			}
		}()
		return c.injector.Inject(ctx, inst)
	}()
	if err != nil {
		c.fail(report, inst.TypeID(), &component.InjectionError{TypeID: inst.TypeID(), Err: err})
	}
}

// discard removes inst from the store and the locator.
func (c *Coordinator) discard(inst *component.Instance) {
	if cur, ok := c.store.Get(inst.TypeID()); ok && cur == inst {
		c.store.Remove(inst.TypeID())
	}

	c.mu.Lock()
	kept := c.owned[:0]
	var drop []ownedService
	for _, o := range c.owned {
		if o.inst == inst {
			drop = append(drop, o)
		} else {
			kept = append(kept, o)
		}
	}
	c.owned = kept
	c.mu.Unlock()

	for _, o := range drop {
		c.locator.UnregisterValue(o.id, o.inst.Component())
	}
}

func (c *Coordinator) releaseServices() {
	c.mu.Lock()
	owned := c.owned
	c.owned = nil
	c.mu.Unlock()

	for _, o := range owned {
		c.locator.UnregisterValue(o.id, o.inst.Component())
	}
}

// live reports whether inst is still the stored instance for its TypeID.
// A later duplicate in the same pass replaces it.
func (c *Coordinator) live(inst *component.Instance) bool {
	cur, ok := c.store.Get(inst.TypeID())
	return ok && cur == inst
}

func (c *Coordinator) initialize(ctx context.Context, b built, report *Report) {
	ctx, span := tracing.StartPhase(ctx, c.tracer, tracing.SpanInitialize,
		attribute.Int(tracing.AttrPlanModules, len(b.modules)),
		attribute.Int(tracing.AttrPlanSubmodules, len(b.submodules)),
	)
	defer tracing.End(span, nil)

	for _, inst := range b.modules {
		if c.live(inst) {
			c.initOne(ctx, inst, report)
		}
	}

	pending := make(map[*component.Instance]bool, len(b.submodules))
	for _, inst := range b.submodules {
		pending[inst] = true
	}
	for _, mod := range c.store.Modules() {
		for _, child := range c.store.ChildrenOf(mod.TypeID()) {
			if pending[child] {
				c.initOne(ctx, child, report)
			}
		}
	}
}

func (c *Coordinator) initOne(ctx context.Context, inst *component.Instance, report *Report) {
	ctx, span := tracing.StartCall(ctx, c.tracer, "initialize", inst.TypeID().String(), inst.Name())

	if err := inst.Initialize(ctx); err != nil {
		var incompatible *component.IncompatibleError
		if errors.As(err, &incompatible) {
			tracing.Event(ctx, tracing.EventIncompatible, attribute.String(tracing.AttrErrorMessage, err.Error()))
		} else {
			err = &component.InitializationError{TypeID: inst.TypeID(), Name: inst.Name(), Err: err}
		}
		tracing.End(span, err)
		c.fail(report, inst.TypeID(), err)
		return
	}
	tracing.End(span, nil)

	report.Initialized = append(report.Initialized, inst.TypeID())
	c.publish(Event{Kind: EventInitialized, TypeID: inst.TypeID(), Name: inst.Name()})
	log.Debug(log.CatLifecycle, "Initialized", "type", inst.TypeID(), "name", inst.Name())
}

func (c *Coordinator) cleanup(ctx context.Context, report *Report) {
	ctx, span := tracing.StartPhase(ctx, c.tracer, tracing.SpanCleanup)
	defer tracing.End(span, nil)

	for _, inst := range c.store.Submodules() {
		c.cleanupOne(ctx, inst, report)
	}
	for _, inst := range c.store.Modules() {
		c.cleanupOne(ctx, inst, report)
	}
}

func (c *Coordinator) cleanupOne(ctx context.Context, inst *component.Instance, report *Report) {
	if !inst.Initialized() {
		return
	}
	ctx, span := tracing.StartCall(ctx, c.tracer, "cleanup", inst.TypeID().String(), inst.Name())

	if err := inst.Cleanup(ctx); err != nil {
		cerr := &component.CleanupError{TypeID: inst.TypeID(), Name: inst.Name(), Err: err}
		tracing.End(span, cerr)
		c.fail(report, inst.TypeID(), cerr)
		return
	}
	tracing.End(span, nil)

	report.CleanedUp = append(report.CleanedUp, inst.TypeID())
	c.publish(Event{Kind: EventCleanedUp, TypeID: inst.TypeID(), Name: inst.Name()})
	log.Debug(log.CatLifecycle, "Cleaned up", "type", inst.TypeID(), "name", inst.Name())
}

// Module returns the live component stored for TypeOf[T]() as T.
// Works for modules and submodules alike; absent when construction failed.
func Module[T any](c *Coordinator) (T, bool) {
	return component.Lookup[T](c.store)
}

// Children returns the submodule instances of the module id.
func Children(c *Coordinator, id component.TypeID) []*component.Instance {
	return c.store.ChildrenOf(id)
}
