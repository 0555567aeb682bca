package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/zerr"

	"go.brick.build/brick/internal/core/domain"
)

// dependencies returns the workspace-relative paths of targets whose
// declared build outputs intersect the given input patterns. Patterns
// are inspected before glob expansion: a dependency's outputs may not
// exist yet, which is exactly why it must be built first.
func (p *Pipeline) dependencies(t *domain.Target, patterns []string) ([]string, error) {
	rootAbs, err := filepath.Abs(p.root)
	if err != nil {
		return nil, zerr.Wrap(err, "resolving workspace root")
	}
	consumerAbs := filepath.Join(rootAbs, filepath.FromSlash(t.Path))

	found := map[string]bool{}
	for _, pattern := range patterns {
		for _, expanded := range p.resolver.ExpandBraces(pattern) {
			inputAbs := filepath.Clean(filepath.Join(consumerAbs, filepath.FromSlash(expanded)))
			if !within(rootAbs, inputAbs) {
				continue
			}
			producer, err := p.producerFor(rootAbs, consumerAbs, inputAbs)
			if err != nil {
				return nil, err
			}
			if producer != "" {
				found[producer] = true
			}
		}
	}

	deps := make([]string, 0, len(found))
	for dep := range found {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps, nil
}

// producerFor walks upward from an input path looking for the first
// ancestor directory with a manifest whose build outputs contain or are
// contained by the input. The walk stops at the consuming target (its
// own files are not dependencies) and never consults manifests above
// the first one found: a nested target shadows its ancestors.
func (p *Pipeline) producerFor(rootAbs, consumerAbs, inputAbs string) (string, error) {
	dir := inputAbs
	if info, err := os.Stat(inputAbs); err != nil || !info.IsDir() {
		// Glob patterns and plain files both resolve to their directory.
		dir = filepath.Dir(inputAbs)
	}

	for {
		if dir == consumerAbs {
			return "", nil
		}
		if p.loader.HasManifest(dir) {
			rel, err := filepath.Rel(rootAbs, dir)
			if err != nil {
				return "", zerr.Wrap(err, "relativizing producer path")
			}
			rel = filepath.ToSlash(rel)
			producer, err := p.loader.Load(p.root, rel)
			if err != nil {
				return "", err
			}
			if producesPath(producer, dir, inputAbs) {
				return rel, nil
			}
			return "", nil
		}
		dir = filepath.Dir(dir)
		if dir == rootAbs || dir == string(filepath.Separator) {
			return "", nil
		}
	}
}

// producesPath reports whether one of the target's build outputs
// contains or is contained by the input path.
func producesPath(producer *domain.Target, producerDir, inputAbs string) bool {
	build, ok := producer.Stage(domain.StageBuild)
	if !ok {
		return false
	}
	for _, out := range build.Outputs {
		outAbs := filepath.Clean(filepath.Join(producerDir, filepath.FromSlash(out)))
		if within(outAbs, inputAbs) || within(inputAbs, outAbs) {
			return true
		}
	}
	return false
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// cyclePath renders a dependency chain for diagnostics, closing the
// loop on the repeated element.
func cyclePath(stack []string, repeated string) string {
	start := 0
	for i, s := range stack {
		if s == repeated {
			start = i
			break
		}
	}
	return strings.Join(append(append([]string{}, stack[start:]...), repeated), " -> ")
}
