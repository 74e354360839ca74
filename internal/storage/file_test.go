package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStorageMissingFileIsEmpty(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "nested", "storage.json"))

	value, ok, err := s.GetItem(context.Background(), "strava_tokens")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, value)
}

func TestFileStoragePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "climbd", "storage.json")

	first := NewFileStorage(path)
	require.NoError(t, first.SetItem(ctx, "a", "1"))
	require.NoError(t, first.SetItem(ctx, "b", "2"))

	second := NewFileStorage(path)
	value, ok, err := second.GetItem(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", value)

	require.NoError(t, second.RemoveItem(ctx, "a"))
	_, ok, err = first.GetItem(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	value, ok, err = first.GetItem(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", value)
}

func TestFileStorageWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	s := NewFileStorage(path)
	require.NoError(t, s.SetItem(context.Background(), "k", "v"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStorageRemoveMissingKey(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, s.RemoveItem(context.Background(), "nope"))
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFileStorage(path)
	_, _, err := s.GetItem(context.Background(), "k")
	require.Error(t, err)
	require.Error(t, s.SetItem(context.Background(), "k", "v"))
}

func TestMemoryStorageHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemoryStorage()
	require.ErrorIs(t, m.SetItem(ctx, "k", "v"), context.Canceled)
	require.Equal(t, 0, m.Len())
}
