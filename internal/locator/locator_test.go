package locator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/modkit/internal/domain/component"
)

type audio struct{ volume int }

type saver interface{ Save() error }

type fileSaver struct{}

func (fileSaver) Save() error { return nil }

func TestRegister_Validation(t *testing.T) {
	l := New()
	require.ErrorIs(t, l.Register("", 1), ErrInvalidTypeID)
	require.ErrorIs(t, l.Register("t.X", nil), ErrNilService)
	require.Zero(t, l.Len())
}

func TestRegister_LastWriteWins(t *testing.T) {
	l := New()
	require.NoError(t, l.Register("t.Audio", "first"))
	require.NoError(t, l.Register("t.Audio", "second"))

	v, ok := l.Resolve("t.Audio")
	require.True(t, ok)
	require.Equal(t, "second", v)
	require.Equal(t, 1, l.Len())
}

func TestRegisterInferType(t *testing.T) {
	l := New()
	a := &audio{volume: 3}
	id, err := l.RegisterInferType(a)
	require.NoError(t, err)
	require.Equal(t, component.TypeID("locator.audio"), id)

	got, ok := Get[*audio](l)
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestProvideGet_ByInterface(t *testing.T) {
	l := New()
	require.NoError(t, Provide[saver](l, fileSaver{}))

	s, ok := Get[saver](l)
	require.True(t, ok)
	require.NoError(t, s.Save())

	_, ok = Get[*audio](l)
	require.False(t, ok)
}

func TestRequire(t *testing.T) {
	l := New()
	_, err := Require[*audio](l)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, l.Register(component.TypeOf[audio](), "not audio"))
	_, err = Require[*audio](l)
	require.ErrorIs(t, err, ErrWrongType)

	a := &audio{}
	require.NoError(t, Provide(l, a))
	got, err := Require[*audio](l)
	require.NoError(t, err)
	require.Same(t, a, got)
}

func TestUnregister(t *testing.T) {
	l := New()
	require.NoError(t, l.Register("t.A", 1))
	l.Unregister("t.A")
	l.Unregister("t.Unknown")
	_, ok := l.Resolve("t.A")
	require.False(t, ok)
}

func TestUnregisterValue_KeepsReplacedEntry(t *testing.T) {
	l := New()
	owner := &audio{}
	require.NoError(t, l.Register("t.Audio", owner))
	require.NoError(t, l.Register("t.Audio", &audio{}))

	require.False(t, l.UnregisterValue("t.Audio", owner))
	require.Equal(t, 1, l.Len())

	cur, _ := l.Resolve("t.Audio")
	require.True(t, l.UnregisterValue("t.Audio", cur))
	require.Zero(t, l.Len())
	require.False(t, l.UnregisterValue("t.Audio", cur))
}

func TestUnregisterValue_Uncomparable(t *testing.T) {
	l := New()
	require.NoError(t, l.Register("t.Slice", []int{1}))
	require.False(t, l.UnregisterValue("t.Slice", []int{1}))
	require.Equal(t, 1, l.Len())
}

func TestList_Sorted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l := New()
		ids := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,6}\.[A-Z][a-z]{0,5}`), 0, 20).Draw(rt, "ids")
		uniq := make(map[string]bool)
		for _, id := range ids {
			require.NoError(rt, l.Register(component.TypeID(id), id))
			uniq[id] = true
		}

		list := l.List()
		require.Len(rt, list, len(uniq))
		for i := 1; i < len(list); i++ {
			require.Less(rt, list[i-1], list[i])
		}
	})
}
