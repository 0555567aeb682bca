package ports

import "github.com/opencontainers/go-digest"

// Hasher computes content-addressed cache keys.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Hasher interface {
	// ComputeHash fingerprints the sorted content of every regular file
	// under the workspace-relative paths, mixed with the identity of the
	// stage's source image. Returns domain.ErrEmptyInput when paths is
	// empty.
	ComputeHash(sourceImage, root string, paths []string) (digest.Digest, error)
}
