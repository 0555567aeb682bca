package ports

//go:generate mockgen -destination=mocks/mock_discovery.go -package=mocks go.brick.build/brick/internal/core/ports TargetDiscoverer

// TargetDiscoverer enumerates the buildable directories of a workspace.
type TargetDiscoverer interface {
	// DiscoverTargets returns the workspace-relative paths of every
	// directory below root that carries a build manifest, sorted.
	// Directories whose name matches an exclude pattern are not descended
	// into.
	DiscoverTargets(root string, excludes []string) ([]string, error)
}
