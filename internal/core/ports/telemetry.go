package ports

import (
	"context"
	"io"
)

// Telemetry records pipeline progress as vertices, one per
// (target, stage) invocation.
//
//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks
type Telemetry interface {
	// Record starts recording a new vertex.
	Record(ctx context.Context, name string) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex represents one unit of pipeline work.
type Vertex interface {
	// Stdout captures the unit's standard output stream.
	Stdout() io.Writer
	// Stderr captures the unit's diagnostic stream. Engine build output
	// goes here so cache-invalidation boundaries are observable as they
	// occur.
	Stderr() io.Writer
	// Cached marks the vertex as satisfied without work.
	Cached()
	// Complete marks the vertex as finished.
	Complete(err error)
}
