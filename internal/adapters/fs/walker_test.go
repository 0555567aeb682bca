package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

func TestWalkFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "b")
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), "x")

	var files []string
	for f, err := range NewWalker().WalkFiles(root, []string{"node_modules"}) {
		require.NoError(t, err)
		files = append(files, f)
	}

	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub", "b.txt"),
	}, files)
}

func TestWalkFilesUnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.txt"), "h")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	var walkErr error
	for _, err := range NewWalker().WalkFiles(root, nil) {
		if err != nil {
			walkErr = err
		}
	}
	require.Error(t, walkErr)
}

func TestDiscoverTargets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "services", "api", domain.ManifestFilename), "name: api")
	writeFile(t, filepath.Join(root, "lib", domain.ManifestFilename), "name: lib")
	writeFile(t, filepath.Join(root, "lib", "src", "x.go"), "package x")
	writeFile(t, filepath.Join(root, "vendor", "dep", domain.ManifestFilename), "name: dep")

	targets, err := NewWalker().DiscoverTargets(root, []string{"vendor"})
	require.NoError(t, err)

	assert.Equal(t, []string{"lib", "services/api"}, targets)
}

func TestDiscoverTargetsRootManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.ManifestFilename), "name: top")

	targets, err := NewWalker().DiscoverTargets(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, targets)
}

func TestDiscoverTargetsEmpty(t *testing.T) {
	targets, err := NewWalker().DiscoverTargets(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, targets)
}
