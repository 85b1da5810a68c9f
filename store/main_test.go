package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"nyiyui.ca/hato/senro/geom"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/layout/preset/kato"
)

func demo(t *testing.T) *layout.Map {
	t.Helper()
	m := layout.NewMap(kato.Scale())
	require.NoError(t, kato.Oval(m))
	return m
}

func encode(t *testing.T, m *layout.Map) string {
	t.Helper()
	data, err := layout.Encode(m)
	require.NoError(t, err)
	return string(data)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "senro.db")
	s, err := Open(path)
	require.NoError(t, err)

	id := uuid.New()
	m := demo(t)
	require.NoError(t, s.Save(id, m))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	loaded, err := s.Load(id, kato.Scale())
	require.NoError(t, err)
	require.Equal(t, encode(t, m), encode(t, loaded))
	require.InDelta(t, m.RailOffset(), loaded.RailOffset(), 1e-12)

	ids, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, ids)
}

func TestNotFound(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	id := uuid.New()
	_, err = s.Load(id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(id), ErrNotFound)

	require.NoError(t, s.Save(id, layout.NewMap()))
	require.NoError(t, s.Delete(id))
	_, err = s.Load(id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	require.NoError(t, s.Save(b, layout.NewMap()))
	require.NoError(t, s.Save(a, layout.NewMap()))
	ids, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{a, b}, ids)
}

func TestAutosaver(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	id := uuid.New()
	m := layout.NewMap()
	a := NewAutosaver(s, id, m)
	if _, ok := a.Sync(); ok {
		t.Fatal("unchanged map synced")
	}
	_, err = s.Load(id)
	require.ErrorIs(t, err, ErrNotFound, "nothing should be saved for an unchanged map")

	l, ok := geom.NewLinearPath(geom.Pt(0, 0), geom.Pt(100, 0))
	require.True(t, ok)
	_, _, err = m.AddTrack(l, nil, nil)
	require.NoError(t, err)
	snap, ok := a.Sync()
	require.True(t, ok)
	require.Len(t, snap.Tracks, 1)
	m.AddSignal(layout.SignalPosition{Point: geom.Pt(10, 0)}, layout.SignalSection)
	a.Close()

	loaded, err := s.Load(id)
	require.NoError(t, err)
	require.Equal(t, encode(t, m), encode(t, loaded))
	require.Len(t, loaded.Tracks(), 1)
	require.Len(t, loaded.Signals(), 1)
}
