package cas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "cache.json"))
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveBuild("svc_build:main", "sha256:abc"))

	hash, ok, err := store.GetHash("svc_build:main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sha256:abc", hash)
}

func TestStoreMissingTag(t *testing.T) {
	store := newTestStore(t)

	_, ok, err := store.GetHash("unknown:latest")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveBuild("svc_build:main", "sha256:old"))
	require.NoError(t, store.SaveBuild("svc_build:main", "sha256:new"))

	hash, ok, err := store.GetHash("svc_build:main")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sha256:new", hash)
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	require.NoError(t, NewStore(path).SaveBuild("svc_prepare:latest", "sha256:1"))

	hash, ok, err := NewStore(path).GetHash("svc_prepare:latest")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sha256:1", hash)
}

func TestStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, _, err := NewStore(path).GetHash("svc_build:main")
	require.Error(t, err)
}
