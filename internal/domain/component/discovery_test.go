package component

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func typeIDs(descs []Descriptor) []TypeID {
	ids := make([]TypeID, 0, len(descs))
	for _, d := range descs {
		ids = append(ids, d.TypeID())
	}
	return ids
}

func TestRegistry_Discover_SortsByLoadOrder(t *testing.T) {
	src := NewStaticSource("static",
		NewModule("m.C").LoadOrder(3).MustBuild(),
		NewModule("m.A").LoadOrder(1).MustBuild(),
		NewModule("m.B").LoadOrder(2).MustBuild(),
		NewSubmodule("m.S2", "m.A").LoadOrder(5).MustBuild(),
		NewSubmodule("m.S1", "m.B").LoadOrder(-1).MustBuild(),
	)

	plan, errs := NewRegistry().Discover(context.Background(), src)

	require.Empty(t, errs)
	require.Equal(t, []TypeID{"m.A", "m.B", "m.C"}, typeIDs(plan.Modules()))
	require.Equal(t, []TypeID{"m.S1", "m.S2"}, typeIDs(plan.Submodules()))
}

func TestRegistry_Discover_TiesKeepDiscoveryOrder(t *testing.T) {
	first := NewStaticSource("first",
		NewModule("m.Z").MustBuild(),
		NewModule("m.Y").MustBuild(),
	)
	second := NewStaticSource("second",
		NewModule("m.X").MustBuild(),
		NewModule("m.Early").LoadOrder(-1).MustBuild(),
	)

	plan, errs := NewRegistry().Discover(context.Background(), first, second)

	require.Empty(t, errs)
	require.Equal(t, []TypeID{"m.Early", "m.Z", "m.Y", "m.X"}, typeIDs(plan.Modules()))
}

func TestRegistry_Discover_InactiveRetained(t *testing.T) {
	src := NewStaticSource("static",
		NewModule("m.On").MustBuild(),
		NewModule("m.Off").AutoLoad(false).MustBuild(),
		NewSubmodule("m.SubOff", "m.On").AutoLoad(false).MustBuild(),
	)

	plan, _ := NewRegistry().Discover(context.Background(), src)

	require.Equal(t, []TypeID{"m.On"}, typeIDs(plan.Modules()))
	require.Empty(t, plan.Submodules())
	require.Equal(t, []TypeID{"m.Off", "m.SubOff"}, typeIDs(plan.Inactive()))
	require.Equal(t, 3, plan.Len())

	d, ok := plan.Lookup("m.Off")
	require.True(t, ok)
	require.False(t, d.AutoLoad())
}

func TestRegistry_Discover_DefaultNames(t *testing.T) {
	src := NewStaticSource("static",
		NewModule("sample.GameModule").MustBuild(),
		NewModule("sample.Inventory").Name("Bag").MustBuild(),
	)

	plan, _ := NewRegistry().Discover(context.Background(), src)

	mods := plan.Modules()
	require.Equal(t, "GameModule", mods[0].Name())
	require.Equal(t, "Bag", mods[1].Name())
}

func TestRegistry_Discover_SourceScannedOnce(t *testing.T) {
	reg := NewRegistry()
	src := NewStaticSource("static", NewModule("m.A").MustBuild())

	plan, _ := reg.Discover(context.Background(), src, src)
	require.Len(t, plan.Modules(), 1)
	require.True(t, reg.Scanned("static"))

	again, errs := reg.Discover(context.Background(), src)
	require.Empty(t, errs)
	require.Zero(t, again.Len())
}

func TestRegistry_Discover_AdditiveAcrossPasses(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Discover(context.Background(), NewStaticSource("one", NewModule("m.A").MustBuild()))

	plan, _ := reg.Discover(context.Background(), NewStaticSource("two",
		NewModule("m.A").LoadOrder(9).MustBuild(),
		NewModule("m.B").MustBuild(),
	))

	require.Equal(t, []TypeID{"m.B"}, typeIDs(plan.Modules()))
}

func TestRegistry_Discover_ScanFailureIsolated(t *testing.T) {
	reg := NewRegistry()
	bad := &failingSource{id: "bad"}
	good := NewStaticSource("good", NewModule("m.A").MustBuild())

	plan, errs := reg.Discover(context.Background(), bad, good)

	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrScanFailed)
	require.ErrorIs(t, errs[0], errEnumerate)
	var sf *ScanFailure
	require.ErrorAs(t, errs[0], &sf)
	require.Equal(t, "bad", sf.SourceID)
	require.Equal(t, []TypeID{"m.A"}, typeIDs(plan.Modules()))
	require.False(t, reg.Scanned("bad"))

	// A failed source is retried on the next pass.
	_, errs = reg.Discover(context.Background(), bad)
	require.Len(t, errs, 1)
	require.Equal(t, 2, bad.calls)
}

func TestRegistry_Discover_SubmoduleFailureDropsWholeSource(t *testing.T) {
	bad := &failingSource{id: "bad", failSubs: true, descs: []Descriptor{NewModule("m.A").MustBuild()}}

	plan, errs := NewRegistry().Discover(context.Background(), bad)

	require.Len(t, errs, 1)
	require.Zero(t, plan.Len())
}

// panickingSource panics while listing one of its descriptor sets.
type panickingSource struct {
	inSubmodules bool
}

func (panickingSource) ID() string { return "panicky" }

func (s panickingSource) Modules(_ context.Context) ([]Descriptor, error) {
	if !s.inSubmodules {
		panic("enumeration exploded")
	}
	return []Descriptor{NewModule("m.Lost").MustBuild()}, nil
}

func (panickingSource) Submodules(_ context.Context) ([]Descriptor, error) {
	panic("enumeration exploded")
}

func TestRegistry_Discover_PanicBecomesScanFailure(t *testing.T) {
	for _, inSubs := range []bool{false, true} {
		t.Run(fmt.Sprintf("submodules=%v", inSubs), func(t *testing.T) {
			reg := NewRegistry()
			good := NewStaticSource("good", NewModule("m.A").MustBuild())

			plan, errs := reg.Discover(context.Background(), panickingSource{inSubmodules: inSubs}, good)

			require.Len(t, errs, 1)
			require.ErrorIs(t, errs[0], ErrScanFailed)
			var pe *PanicError
			require.ErrorAs(t, errs[0], &pe)
			require.Equal(t, "enumeration exploded", pe.Value)
			var sf *ScanFailure
			require.ErrorAs(t, errs[0], &sf)
			require.Equal(t, "panicky", sf.SourceID)

			require.Equal(t, []TypeID{"m.A"}, typeIDs(plan.Modules()))
			require.False(t, reg.Scanned("panicky"))
		})
	}
}

func TestRegistry_Discover_NilSourceSkipped(t *testing.T) {
	plan, errs := NewRegistry().Discover(context.Background(), nil)
	require.Empty(t, errs)
	require.Zero(t, plan.Len())
}

func TestPlan_SubmodulesOf(t *testing.T) {
	plan := NewPlan(
		NewModule("m.A").MustBuild(),
		NewSubmodule("m.S1", "m.A").LoadOrder(2).MustBuild(),
		NewSubmodule("m.S2", "m.B").MustBuild(),
		NewSubmodule("m.S3", "m.A").LoadOrder(1).MustBuild(),
	)

	require.Equal(t, []TypeID{"m.S3", "m.S1"}, typeIDs(plan.SubmodulesOf("m.A")))
	require.Equal(t, []TypeID{"m.S2"}, typeIDs(plan.SubmodulesOf("m.B")))
	require.Empty(t, plan.SubmodulesOf("m.C"))
}

func TestPlan_AppendKeepsPassOrder(t *testing.T) {
	a := NewPlan(NewModule("m.A").LoadOrder(5).MustBuild())
	b := NewPlan(NewModule("m.B").LoadOrder(1).MustBuild())

	merged := a.Append(b)

	require.Equal(t, []TypeID{"m.A", "m.B"}, typeIDs(merged.Modules()))
	require.Len(t, a.Modules(), 1)
	require.Len(t, b.Modules(), 1)
}

func TestPlan_NilSafe(t *testing.T) {
	var p *Plan
	require.Zero(t, p.Len())
	require.Empty(t, p.Modules())
	require.Empty(t, p.All())
	_, ok := p.Lookup("m.A")
	require.False(t, ok)
	require.Len(t, p.Append(NewPlan(NewModule("m.A").MustBuild())).Modules(), 1)
}

// Property: module order is ascending LoadOrder, ties broken by discovery index.
func TestRegistry_Discover_OrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders := rapid.SliceOfN(rapid.IntRange(-3, 3), 0, 20).Draw(t, "orders")

		descs := make([]Descriptor, len(orders))
		for i, o := range orders {
			descs[i] = NewModule(TypeID(fmt.Sprintf("m.T%02d", i))).LoadOrder(o).MustBuild()
		}

		plan, errs := NewRegistry().Discover(context.Background(), NewStaticSource("p", descs...))
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}

		got := plan.Modules()
		if len(got) != len(descs) {
			t.Fatalf("got %d modules, want %d", len(got), len(descs))
		}
		index := make(map[TypeID]int, len(descs))
		for i, d := range descs {
			index[d.TypeID()] = i
		}
		ok := slices.IsSortedFunc(got, func(a, b Descriptor) int {
			if a.LoadOrder() != b.LoadOrder() {
				return a.LoadOrder() - b.LoadOrder()
			}
			return index[a.TypeID()] - index[b.TypeID()]
		})
		if !ok {
			t.Fatalf("modules not in (loadOrder, discovery) order: %v", typeIDs(got))
		}
	})
}
