package sample

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/hosttree"
	"github.com/zjrosen/modkit/internal/lifecycle"
	"github.com/zjrosen/modkit/internal/locator"
)

func startSample(t *testing.T) (*lifecycle.Coordinator, *hosttree.Node, *lifecycle.Report) {
	t.Helper()
	root := hosttree.NewRoot("root")
	loc := locator.New()
	c, err := lifecycle.New(lifecycle.Config{
		Factory:     Catalog(),
		Locator:     loc,
		Root:        root,
		Injector:    Injector(loc),
		Canon:       lifecycle.NewCanon(),
		Diagnostics: lifecycle.DiagnosticsFunc(func(error) {}),
	})
	require.NoError(t, err)
	report, err := c.Start(context.Background(), Source())
	require.NoError(t, err)
	return c, root, report
}

func TestCatalog_RegistersEverySample(t *testing.T) {
	c := Catalog()
	for _, d := range Descriptors() {
		require.True(t, c.Has(d.TypeID()), d.TypeID())
	}
	require.Len(t, c.Types(), len(Descriptors()))
}

func TestStart_SampleGame(t *testing.T) {
	c, root, report := startSample(t)

	require.Equal(t, lifecycle.StateActive, c.State())
	require.Equal(t, []component.TypeID{GameID, InventoryID, PlayerStatsID, SaveSystemID}, report.Initialized)
	require.NotContains(t, report.Constructed, AnalyticsID)

	// Physics is constructed but gated out by its compatibility check.
	require.Contains(t, report.Constructed, PhysicsID)
	require.Len(t, report.FailuresOf(component.ErrIncompatible), 1)
	require.Len(t, report.Failures, 1)

	game, ok := lifecycle.Module[*GameModule](c)
	require.True(t, ok)
	require.True(t, game.Ready())

	stats := lifecycle.Children(c, GameID)
	require.Len(t, stats, 2)
	ps, ok := component.As[*PlayerStatsSubmodule](stats[0])
	require.True(t, ok)
	require.Equal(t, 100, ps.Health())

	for _, path := range []string{"root/Game", "root/Game/PlayerStats", "root/Game/SaveSystem", "root/Inventory"} {
		_, found := root.Find(path)
		require.True(t, found, path)
	}
}

func TestStart_InventoryServedThroughLocator(t *testing.T) {
	c, _, _ := startSample(t)

	store, err := locator.Require[ItemStore](c.Locator())
	require.NoError(t, err)
	require.Equal(t, []string{"sword", "potion"}, store.Items())

	inv, ok := lifecycle.Module[*InventoryModule](c)
	require.True(t, ok)
	require.Same(t, inv, store)
}

func TestShutdown_SaveSystemSnapshotsInventory(t *testing.T) {
	c, _, _ := startSample(t)

	store, err := locator.Require[ItemStore](c.Locator())
	require.NoError(t, err)
	store.Add("shield")

	saves := lifecycle.Children(c, GameID)
	save, ok := component.As[*SaveSystemSubmodule](saves[1])
	require.True(t, ok)

	report, err := c.Shutdown(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Equal(t, []string{"sword", "potion", "shield"}, save.Saved())
	require.Equal(t, lifecycle.StateEmpty, c.State())

	_, found := locator.Get[ItemStore](c.Locator())
	require.False(t, found)
}

func TestLegacyPhysics_CheckCompatibility(t *testing.T) {
	require.Error(t, (&LegacyPhysicsModule{RequiredAPI: HostAPIVersion + 1}).CheckCompatibility())
	require.NoError(t, (&LegacyPhysicsModule{RequiredAPI: HostAPIVersion}).CheckCompatibility())
}

func TestInjector_SkipsComponentsWithoutInject(t *testing.T) {
	inst, err := component.NewInstance(Descriptors()[0], &GameModule{})
	require.NoError(t, err)
	require.NoError(t, Injector(locator.New()).Inject(context.Background(), inst))
}

func TestSaveSystem_InjectWithoutStore(t *testing.T) {
	s := &SaveSystemSubmodule{}
	require.Error(t, s.Inject(locator.New()))
	require.Error(t, s.Initialize(context.Background()))
}
