package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

func newTestHasher() *Hasher {
	return NewHasher(NewWalker())
}

func TestComputeHashPermutationInvariant(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "b.txt"), "beta")

	h := newTestHasher()
	first, err := h.ComputeHash("alpine:3", root, []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	second, err := h.ComputeHash("alpine:3", root, []string{"b.txt", "a.txt"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeHashDirectoryEqualsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.txt"), "alpha")
	writeFile(t, filepath.Join(root, "src", "sub", "b.txt"), "beta")

	h := newTestHasher()
	byDir, err := h.ComputeHash("img", root, []string{"src"})
	require.NoError(t, err)
	byFiles, err := h.ComputeHash("img", root, []string{"src/a.txt", "src/sub/b.txt"})
	require.NoError(t, err)

	assert.Equal(t, byDir, byFiles)
}

func TestComputeHashChangesWithContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	h := newTestHasher()
	before, err := h.ComputeHash("img", root, []string{"a.txt"})
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "a.txt"), "changed")
	after, err := h.ComputeHash("img", root, []string{"a.txt"})
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestComputeHashChangesWithSourceImage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "alpha")

	h := newTestHasher()
	first, err := h.ComputeHash("alpine:3.19", root, []string{"a.txt"})
	require.NoError(t, err)
	second, err := h.ComputeHash("alpine:3.20", root, []string{"a.txt"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestComputeHashEmptyInput(t *testing.T) {
	_, err := newTestHasher().ComputeHash("img", t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyInput))
}

func TestComputeHashUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.txt"), "alpha")
	locked := filepath.Join(root, "src", "locked")
	writeFile(t, filepath.Join(locked, "b.txt"), "beta")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := newTestHasher().ComputeHash("img", root, []string{"src"})
	require.Error(t, err)
}

func TestComputeHashMissingPath(t *testing.T) {
	_, err := newTestHasher().ComputeHash("img", t.TempDir(), []string{"nope.txt"})
	require.Error(t, err)
}
