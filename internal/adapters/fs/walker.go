package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"sort"

	"go.brick.build/brick/internal/core/domain"
	"go.trai.ch/zerr"
)

// Walker provides file walking and target discovery.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file under root, pruning .git and any
// directory matching the ignore patterns. A traversal failure is
// yielded as the final pair and terminates the sequence.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip := w.shouldSkip(d, ignores); skip != nil {
				return skip
			}

			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			if matchesAny(d.Name(), ignores) {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}

			return nil
		})
		if err != nil {
			yield("", zerr.With(zerr.Wrap(err, "failed to walk files"), "root", root))
		}
	}
}

// DiscoverTargets scans for manifest files beneath root, pruning
// directories that match the exclude patterns. Returned target paths
// are workspace-relative and sorted lexicographically.
func (w *Walker) DiscoverTargets(root string, excludes []string) ([]string, error) {
	var targets []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if skip := w.shouldSkip(d, excludes); skip != nil {
				return skip
			}
			return nil
		}

		if d.Name() == domain.ManifestFilename {
			rel, err := filepath.Rel(root, filepath.Dir(path))
			if err != nil {
				return err
			}
			targets = append(targets, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to discover targets"), "root", root)
	}

	sort.Strings(targets)
	return targets, nil
}

// shouldSkip prunes version-control and explicitly excluded directories.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) error {
	if !d.IsDir() {
		return nil
	}

	name := d.Name()
	if name == ".git" || name == ".jj" || matchesAny(name, ignores) {
		return filepath.SkipDir
	}

	return nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
