package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrConfig is returned for a missing or malformed manifest.
	ErrConfig = zerr.New("invalid build configuration")

	// ErrNoMatch is returned when an input pattern matches no files.
	ErrNoMatch = zerr.New("no files match input pattern")

	// ErrDependencyCycle is returned when targets depend on each other's
	// outputs in a cycle.
	ErrDependencyCycle = zerr.New("dependency cycle detected")

	// ErrInvalidOutput is returned when a declared output escapes its
	// target directory.
	ErrInvalidOutput = zerr.New("output path escapes target directory")

	// ErrEngine is returned when an image engine invocation fails.
	ErrEngine = zerr.New("image engine invocation failed")

	// ErrEmptyInput is returned when a cache key is requested over an
	// empty path set. Indicates a caller bug rather than a config issue.
	ErrEmptyInput = zerr.New("cannot compute cache key over empty input set")

	// ErrRootNotFound is returned when no workspace marker is found
	// within the bounded upward search.
	ErrRootNotFound = zerr.New("workspace root not found")

	// ErrExtractPathMissing is returned by the engine when a declared
	// output path is transiently absent from a built image. It is the
	// single retryable engine condition.
	ErrExtractPathMissing = zerr.New("path not found in image")
)

// ExitCode extracts the engine process exit code attached to an engine
// error, or 1 for any other non-nil error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		zErr, ok := e.(*zerr.Error)
		if !ok {
			continue
		}
		if code, ok := zErr.Metadata()["exit_code"].(int); ok && code != 0 {
			return code
		}
	}
	return 1
}
