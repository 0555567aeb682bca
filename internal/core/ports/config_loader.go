package ports

import "go.brick.build/brick/internal/core/domain"

// ConfigLoader loads per-target build manifests.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads and validates the manifest of the target at
	// root/target. Returns domain.ErrConfig for a missing or malformed
	// manifest.
	Load(root, target string) (*domain.Target, error)

	// HasManifest reports whether the directory carries a manifest,
	// without parsing it.
	HasManifest(dir string) bool
}
