package fs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver expands input patterns: bash-style brace expansion first,
// then glob expansion relative to the target directory. Recursive **
// wildcards are supported.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs resolves the given patterns into concrete file paths,
// normalized relative to the workspace root, sorted and deduplicated.
// A pattern matching zero files fails with domain.ErrNoMatch: an empty
// input list for a declared stage is almost always a manifest bug.
func (r *Resolver) ResolveInputs(root, target string, patterns []string) ([]string, error) {
	uniquePaths := make(map[string]bool)

	for _, pattern := range patterns {
		for _, expanded := range r.ExpandBraces(pattern) {
			full := filepath.Join(root, target, expanded)

			matches, err := doublestar.FilepathGlob(full)
			if err != nil {
				globErr := zerr.With(zerr.Wrap(err, "malformed input pattern"), "pattern", pattern)
				return nil, zerr.With(globErr, "target", target)
			}
			if len(matches) == 0 {
				noMatch := zerr.With(zerr.Wrap(domain.ErrNoMatch, "input pattern matched nothing"), "pattern", expanded)
				return nil, zerr.With(noMatch, "target", target)
			}

			for _, match := range matches {
				rel, err := filepath.Rel(root, match)
				if err != nil {
					return nil, zerr.With(zerr.Wrap(err, "failed to relativize match"), "path", match)
				}
				uniquePaths[filepath.ToSlash(rel)] = true
			}
		}
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}

// ExpandBraces performs bash-style brace expansion on a single pattern
// without touching the filesystem. Groups without a top-level comma are
// kept literal, matching bash.
func (r *Resolver) ExpandBraces(pattern string) []string {
	start, depth := -1, 0

	for i, c := range pattern {
		switch c {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth != 0 || start < 0 {
				continue
			}
			alts := splitAlternatives(pattern[start+1 : i])
			if len(alts) < 2 {
				continue
			}
			var out []string
			for _, alt := range alts {
				out = append(out, r.ExpandBraces(pattern[:start]+alt+pattern[i+1:])...)
			}
			return out
		}
	}

	return []string{pattern}
}

// splitAlternatives splits a brace group body on top-level commas.
func splitAlternatives(body string) []string {
	var alts []string
	var b strings.Builder
	depth := 0

	for _, c := range body {
		switch {
		case c == '{':
			depth++
			b.WriteRune(c)
		case c == '}':
			depth--
			b.WriteRune(c)
		case c == ',' && depth == 0:
			alts = append(alts, b.String())
			b.Reset()
		default:
			b.WriteRune(c)
		}
	}
	alts = append(alts, b.String())

	return alts
}
