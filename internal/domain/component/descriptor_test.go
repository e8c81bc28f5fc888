package component

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeOf_PointerAndValueMatch(t *testing.T) {
	require.Equal(t, TypeID("component.markerModule"), TypeOf[markerModule]())
	require.Equal(t, TypeOf[markerModule](), TypeOf[*markerModule]())
	require.Equal(t, TypeOf[markerModule](), TypeIDOf(&markerModule{}))
}

func TestTypeIDOf_Nil(t *testing.T) {
	require.Equal(t, TypeID(""), TypeIDOf(nil))
	require.False(t, TypeIDOf(nil).IsValid())
}

func TestTypeOf_Unnamed(t *testing.T) {
	require.Equal(t, TypeID("[]string"), TypeOf[[]string]())
}

func TestTypeID_ShortName(t *testing.T) {
	tests := []struct {
		id   TypeID
		want string
	}{
		{"sample.GameModule", "GameModule"},
		{"GameModule", "GameModule"},
		{"a.b.C", "C"},
		{"trailing.", "trailing."},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			require.Equal(t, tt.want, tt.id.ShortName())
		})
	}
}

func TestTypeID_IsValid(t *testing.T) {
	require.True(t, TypeID("x.Y").IsValid())
	require.False(t, TypeID("").IsValid())
	require.False(t, TypeID("   ").IsValid())
}

func TestBuilder_ModuleDefaults(t *testing.T) {
	d, err := NewModule("sample.GameModule").Build()

	require.NoError(t, err)
	require.Equal(t, TypeID("sample.GameModule"), d.TypeID())
	require.True(t, d.AutoLoad())
	require.Zero(t, d.LoadOrder())
	require.Empty(t, d.Name())
	require.Equal(t, KindModule, d.Kind())
	require.False(t, d.IsSubmodule())
}

func TestBuilder_AllFields(t *testing.T) {
	d, err := NewSubmodule("sample.PlayerStats", "sample.GameModule").
		Name("Player Stats").
		AutoLoad(false).
		LoadOrder(3).
		Version("1.2.0").
		Labels("core", "gameplay").
		Build()

	require.NoError(t, err)
	require.Equal(t, "Player Stats", d.Name())
	require.False(t, d.AutoLoad())
	require.Equal(t, 3, d.LoadOrder())
	require.Equal(t, "1.2.0", d.Version())
	require.Equal(t, TypeID("sample.GameModule"), d.Parent())
	require.Equal(t, KindSubmodule, d.Kind())
	require.True(t, d.HasLabels("core"))
	require.True(t, d.HasLabels("core", "gameplay"))
	require.False(t, d.HasLabels("core", "ui"))
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewModule("").Build()
	require.ErrorIs(t, err, ErrEmptyTypeID)

	_, err = NewSubmodule("sample.S", "").Build()
	require.ErrorIs(t, err, ErrEmptyParent)

	_, err = NewSubmodule("sample.S", "  ").Build()
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = NewSubmodule("sample.S", "sample.S").Build()
	require.ErrorIs(t, err, ErrSelfParent)
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	require.Panics(t, func() { NewModule("").MustBuild() })
	require.NotPanics(t, func() { NewModule("x.Y").MustBuild() })
}

func TestDescriptor_DefaultName(t *testing.T) {
	d := NewModule("sample.GameModule").MustBuild().withDefaultName()
	require.Equal(t, "GameModule", d.Name())

	named := NewModule("sample.GameModule").Name("Game").MustBuild().withDefaultName()
	require.Equal(t, "Game", named.Name())
}
