// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
	"time"

	"go.brick.build/brick/internal/core/domain"
)

// BuildOptions configures a single engine build invocation.
type BuildOptions struct {
	// Labels are written onto the image at build time. The label write
	// and the subsequent tag writes form the cache commit point.
	Labels map[string]string
	// NoCache disables the engine's own layer cache.
	NoCache bool
	// PassSSH forwards the default ssh agent into build mounts.
	PassSSH bool
	// Secrets are mounted into Run instructions by id.
	Secrets map[string]domain.Secret
	// Progress receives the engine's streamed diagnostic output.
	Progress io.Writer
}

// RunOptions configures an interactive container run.
type RunOptions struct {
	Image domain.ImageReference
	// ImageID may be used instead of Image when a content-addressed id
	// is known.
	ImageID string
	Command string
	// Volumes maps absolute host paths to container paths, mounted rw.
	Volumes map[string]string
	// Ports are published host:container with identical numbers.
	Ports       []int
	Environment map[string]string
}

// ImageEngine is the external container build/tag/registry collaborator.
// The pipeline consumes this capability surface and never talks to a
// container runtime directly.
//
//go:generate go run go.uber.org/mock/mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks
type ImageEngine interface {
	// Build constructs an image from the descriptor with the workspace
	// root as build context. It reports the content-addressed image id
	// and whether the engine satisfied the build entirely from its own
	// layer cache.
	Build(ctx context.Context, root string, desc *domain.Descriptor, opts BuildOptions) (imageID string, cacheHit bool, err error)

	// Tag applies every reference to the image.
	Tag(ctx context.Context, image string, tags []domain.ImageReference) error

	// ImagesWithLabel lists references of images carrying the exact
	// label key=value pair.
	ImagesWithLabel(ctx context.Context, key, value string) ([]domain.ImageReference, error)

	// ImageExists reports whether the reference resolves locally.
	ImageExists(ctx context.Context, ref domain.ImageReference) (bool, error)

	// Push uploads the reference to its remote registry.
	Push(ctx context.Context, ref domain.ImageReference) error

	// ExtractPath copies containerPath out of the image's filesystem
	// into hostPath, replacing it. A transiently missing containerPath
	// is reported as domain.ErrExtractPathMissing.
	ExtractPath(ctx context.Context, image string, containerPath, hostPath string) error

	// ListImages returns images whose repository starts with prefix,
	// restricted to those last tagged before olderThan when non-zero.
	ListImages(ctx context.Context, prefix string, olderThan time.Time) ([]domain.ImageSummary, error)

	// DeleteImage removes an image by id.
	DeleteImage(ctx context.Context, id string, force bool) error

	// Run starts an interactive container and blocks until it exits.
	// Cancelling the context terminates the container.
	Run(ctx context.Context, opts RunOptions) error
}
