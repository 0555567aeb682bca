package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/opencontainers/go-digest"
	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes content-addressed cache keys over sets of input files.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeHash fingerprints the content of every regular file under the
// given workspace-relative paths together with the identity of the
// stage's source image. The enumeration is sorted before digesting, so
// the key is invariant under permutation of the path list and of
// directory traversal order. A changed source image changes the key
// even when no input file changed.
func (h *Hasher) ComputeHash(sourceImage, root string, paths []string) (digest.Digest, error) {
	if len(paths) == 0 {
		return "", zerr.With(zerr.Wrap(domain.ErrEmptyInput, "nothing to hash"), "source_image", sourceImage)
	}

	files, err := h.enumerate(root, paths)
	if err != nil {
		return "", err
	}

	digester := digest.SHA256.Digester()
	hash := digester.Hash()

	_, _ = hash.Write([]byte(sourceImage))
	_, _ = hash.Write([]byte{0})

	for _, file := range files {
		fileDigest, err := h.digestFile(file)
		if err != nil {
			return "", err
		}
		_, _ = hash.Write([]byte(fileDigest))
	}

	return digester.Digest(), nil
}

// enumerate expands directories into their regular files and returns a
// sorted, deduplicated list of absolute paths.
func (h *Hasher) enumerate(root string, paths []string) ([]string, error) {
	unique := make(map[string]bool)

	for _, p := range paths {
		abs := filepath.Join(root, p)

		info, err := os.Stat(abs)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat input path"), "path", abs)
		}

		if info.IsDir() {
			for file, err := range h.walker.WalkFiles(abs, nil) {
				if err != nil {
					return nil, err
				}
				unique[file] = true
			}
			continue
		}
		if info.Mode().IsRegular() {
			unique[abs] = true
		}
	}

	files := make([]string, 0, len(unique))
	for f := range unique {
		files = append(files, f)
	}
	sort.Strings(files)

	return files, nil
}

func (h *Hasher) digestFile(path string) (digest.Digest, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from resolved inputs
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open input file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // best effort close in defer

	d, err := digest.FromReader(f)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to digest input file"), "path", path)
	}
	return d, nil
}
