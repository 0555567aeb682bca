// Package fs provides file system adapters: workspace root discovery,
// target discovery, input resolution and content hashing.
package fs

import (
	"os"
	"path/filepath"

	"go.brick.build/brick/internal/core/domain"
	"go.trai.ch/zerr"
)

// maxRootSearchDepth bounds the upward search for the workspace marker.
const maxRootSearchDepth = 10

// FindRoot walks upward from start until it finds a directory carrying
// the WORKSPACE marker file. The search is bounded; running out of
// levels or hitting the filesystem root yields domain.ErrRootNotFound.
// The resolved root is passed explicitly through every subsequent call.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve start directory"), "start", start)
	}

	for i := 0; i <= maxRootSearchDepth; i++ {
		marker := filepath.Join(dir, domain.WorkspaceMarker)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", zerr.With(zerr.Wrap(domain.ErrRootNotFound, "no WORKSPACE file above start directory"), "start", start)
}
