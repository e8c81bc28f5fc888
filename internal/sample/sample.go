// Package sample holds the built-in example components: a game module with
// stats and save submodules, an inventory, a third-party physics module that
// requires a newer host API, and an analytics module that is not auto-loaded.
package sample

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/hosttree"
	"github.com/zjrosen/modkit/internal/lifecycle"
	"github.com/zjrosen/modkit/internal/locator"
	"github.com/zjrosen/modkit/internal/log"
)

// HostAPIVersion is the component API level this host provides.
const HostAPIVersion = 2

// SourceID identifies the built-in source.
const SourceID = "builtin:sample"

// TypeIDs of the sample components.
var (
	GameID        = component.TypeOf[GameModule]()
	InventoryID   = component.TypeOf[InventoryModule]()
	PlayerStatsID = component.TypeOf[PlayerStatsSubmodule]()
	SaveSystemID  = component.TypeOf[SaveSystemSubmodule]()
	PhysicsID     = component.TypeOf[LegacyPhysicsModule]()
	AnalyticsID   = component.TypeOf[AnalyticsModule]()
	ItemStoreID   = component.TypeOf[ItemStore]()
)

// ItemStore is the capability InventoryModule provides through the locator.
type ItemStore interface {
	Add(item string)
	Items() []string
}

// GameModule owns the session state the submodules read.
type GameModule struct {
	hosttree.Host

	mu    sync.Mutex
	level int
	ready bool
}

// Initialize starts a session at level 1.
func (g *GameModule) Initialize(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.level = 1
	g.ready = true
	log.Info(log.CatLifecycle, "Game session started", "level", g.level)
	return nil
}

// Cleanup ends the session.
func (g *GameModule) Cleanup(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ready = false
	return nil
}

// Level returns the current level.
func (g *GameModule) Level() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level
}

// Ready reports whether the session is running.
func (g *GameModule) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// InventoryModule stores item names.
type InventoryModule struct {
	hosttree.Host

	mu    sync.Mutex
	items []string
}

// Initialize seeds the starting items.
func (i *InventoryModule) Initialize(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = []string{"sword", "potion"}
	return nil
}

// Cleanup drops every item.
func (i *InventoryModule) Cleanup(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = nil
	return nil
}

// Provides exposes the module as an ItemStore.
func (i *InventoryModule) Provides() []component.TypeID {
	return []component.TypeID{ItemStoreID}
}

// Add appends an item.
func (i *InventoryModule) Add(item string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.items = append(i.items, item)
}

// Items returns a copy of the items.
func (i *InventoryModule) Items() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return slices.Clone(i.items)
}

// PlayerStatsSubmodule tracks player health for the parent game.
type PlayerStatsSubmodule struct {
	hosttree.Host

	game   *GameModule
	health int
}

// SetParent receives the owning GameModule.
func (p *PlayerStatsSubmodule) SetParent(parent component.Component) {
	p.game, _ = parent.(*GameModule)
}

// Initialize scales health with the game level. The parent is initialized first.
func (p *PlayerStatsSubmodule) Initialize(_ context.Context) error {
	if p.game == nil || !p.game.Ready() {
		return fmt.Errorf("game session not running")
	}
	p.health = 100 * p.game.Level()
	return nil
}

// Cleanup resets health.
func (p *PlayerStatsSubmodule) Cleanup(_ context.Context) error {
	p.health = 0
	return nil
}

// Health returns the current health.
func (p *PlayerStatsSubmodule) Health() int { return p.health }

// SaveSystemSubmodule snapshots the inventory on cleanup.
type SaveSystemSubmodule struct {
	hosttree.Host

	store ItemStore
	saved []string
}

// Inject resolves the ItemStore from the locator.
func (s *SaveSystemSubmodule) Inject(loc *locator.Locator) error {
	store, err := locator.Require[ItemStore](loc)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

// Initialize requires the injected store.
func (s *SaveSystemSubmodule) Initialize(_ context.Context) error {
	if s.store == nil {
		return fmt.Errorf("no item store injected")
	}
	return nil
}

// Cleanup saves the inventory. Submodules clean up before modules, so the
// inventory still holds its items.
func (s *SaveSystemSubmodule) Cleanup(_ context.Context) error {
	s.saved = s.store.Items()
	log.Debug(log.CatLifecycle, "Saved inventory", "items", len(s.saved))
	return nil
}

// Saved returns the last snapshot.
func (s *SaveSystemSubmodule) Saved() []string { return slices.Clone(s.saved) }

// LegacyPhysicsModule is a third-party module built against a newer host API.
type LegacyPhysicsModule struct {
	RequiredAPI int
}

// CheckCompatibility fails when the host API is older than required.
func (l *LegacyPhysicsModule) CheckCompatibility() error {
	if l.RequiredAPI > HostAPIVersion {
		return fmt.Errorf("requires host API %d, have %d", l.RequiredAPI, HostAPIVersion)
	}
	return nil
}

func (l *LegacyPhysicsModule) Initialize(context.Context) error { return nil }
func (l *LegacyPhysicsModule) Cleanup(context.Context) error    { return nil }

// AnalyticsModule is declared with auto-load off and never constructed.
type AnalyticsModule struct{}

func (AnalyticsModule) Initialize(context.Context) error { return nil }
func (AnalyticsModule) Cleanup(context.Context) error    { return nil }

// Catalog returns a catalog with every sample constructor registered.
func Catalog() *component.Catalog {
	c := component.NewCatalog()
	mustRegister(component.Register(c, func(context.Context) (*GameModule, error) {
		g := &GameModule{}
		g.SetHostName("Game")
		return g, nil
	}))
	mustRegister(component.Register(c, func(context.Context) (*InventoryModule, error) {
		i := &InventoryModule{}
		i.SetHostName("Inventory")
		return i, nil
	}))
	mustRegister(component.Register(c, func(context.Context) (*PlayerStatsSubmodule, error) {
		p := &PlayerStatsSubmodule{}
		p.SetHostName("PlayerStats")
		return p, nil
	}))
	mustRegister(component.Register(c, func(context.Context) (*SaveSystemSubmodule, error) {
		s := &SaveSystemSubmodule{}
		s.SetHostName("SaveSystem")
		return s, nil
	}))
	mustRegister(component.Register(c, func(context.Context) (*LegacyPhysicsModule, error) {
		return &LegacyPhysicsModule{RequiredAPI: HostAPIVersion + 1}, nil
	}))
	mustRegister(component.Register(c, func(context.Context) (*AnalyticsModule, error) {
		return &AnalyticsModule{}, nil
	}))
	return c
}

func mustRegister(_ component.TypeID, err error) {
	if err != nil {
		panic(err)
	}
}

// Descriptors returns the sample declarations.
func Descriptors() []component.Descriptor {
	return []component.Descriptor{
		component.NewModule(GameID).Name("Game").LoadOrder(1).Version("1.0.0").Labels("core").MustBuild(),
		component.NewModule(InventoryID).Name("Inventory").LoadOrder(2).Version("1.0.0").Labels("core").MustBuild(),
		component.NewModule(PhysicsID).Name("Physics").LoadOrder(3).Version("0.9.0").Labels("third-party").MustBuild(),
		component.NewModule(AnalyticsID).Name("Analytics").AutoLoad(false).Labels("telemetry").MustBuild(),
		component.NewSubmodule(PlayerStatsID, GameID).Name("PlayerStats").LoadOrder(1).MustBuild(),
		component.NewSubmodule(SaveSystemID, GameID).Name("SaveSystem").LoadOrder(2).MustBuild(),
	}
}

// Source returns the built-in source over Descriptors.
func Source() *component.StaticSource {
	return component.NewStaticSource(SourceID, Descriptors()...)
}

// Injector supplies locator references to components that implement
// Inject(*locator.Locator) error.
func Injector(loc *locator.Locator) lifecycle.Injector {
	return lifecycle.InjectorFunc(func(_ context.Context, inst *component.Instance) error {
		if in, ok := inst.Component().(interface{ Inject(*locator.Locator) error }); ok {
			return in.Inject(loc)
		}
		return nil
	})
}
