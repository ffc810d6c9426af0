package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/openbusser/internal/store"
)

func TestNewKVStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")

		s, err := NewKVStore(dataDir)
		require.NoError(t, err)
		assert.NotNil(t, s)

		info, err := os.Stat(dataDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})

	t.Run("creates state file on initialization", func(t *testing.T) {
		tmpDir := t.TempDir()
		s, err := NewKVStore(tmpDir)
		require.NoError(t, err)

		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		st, err := s.load()
		require.NoError(t, err)
		assert.Equal(t, 1, st.Version)
		assert.Empty(t, st.Values)
	})

	t.Run("keeps existing state", func(t *testing.T) {
		tmpDir := t.TempDir()
		s, err := NewKVStore(tmpDir)
		require.NoError(t, err)
		require.NoError(t, s.Set(context.Background(), "k", "v"))

		reopened, err := NewKVStore(tmpDir)
		require.NoError(t, err)
		value, err := reopened.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "v", value)
	})
}

func TestKVStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "openBusserSessionId", "sess-1"))
	value, err := s.Get(ctx, "openBusserSessionId")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", value)

	require.NoError(t, s.Delete(ctx, "openBusserSessionId"))
	_, err = s.Get(ctx, "openBusserSessionId")
	require.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, s.Delete(ctx, "openBusserSessionId"))
}

func TestKVStore_stateFileIsPlainJSON(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "a", "1"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var st state
	require.NoError(t, json.Unmarshal(data, &st))
	assert.Equal(t, map[string]string{"a": "1"}, st.Values)
}

func TestKVStore_atomicUpdate(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := NewKVStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "a", "1"))
	require.NoError(t, s.Set(context.Background(), "b", "2"))

	_, err = os.Stat(filepath.Join(tmpDir, "state.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestKVStore_corruptState(t *testing.T) {
	s, err := NewKVStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(s.Path(), []byte("{broken"), 0600))

	_, err = s.Get(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse state")
}
