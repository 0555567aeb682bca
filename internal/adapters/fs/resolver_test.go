package fs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

func TestExpandBraces(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name    string
		pattern string
		want    []string
	}{
		{name: "no braces", pattern: "src/**/*.go", want: []string{"src/**/*.go"}},
		{name: "simple group", pattern: "{src,lib}/main.go", want: []string{"src/main.go", "lib/main.go"}},
		{name: "nested group", pattern: "a/{b,c{d,e}}/f", want: []string{"a/b/f", "a/cd/f", "a/ce/f"}},
		{name: "no comma kept literal", pattern: "a/{b}/c", want: []string{"a/{b}/c"}},
		{name: "two groups", pattern: "{a,b}{1,2}", want: []string{"a1", "a2", "b1", "b2"}},
		{name: "empty alternative", pattern: "main{,.bak}", want: []string{"main", "main.bak"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, r.ExpandBraces(tt.pattern))
		})
	}
}

func TestResolveInputs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "package.json"), "{}")
	writeFile(t, filepath.Join(root, "svc", "src", "index.js"), "1")
	writeFile(t, filepath.Join(root, "svc", "src", "util", "x.js"), "2")
	writeFile(t, filepath.Join(root, "svc", "src", "readme.md"), "doc")

	resolved, err := NewResolver().ResolveInputs(root, "svc", []string{"package.json", "src/**/*.js"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"svc/package.json",
		"svc/src/index.js",
		"svc/src/util/x.js",
	}, resolved)
}

func TestResolveInputsDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "main.go"), "package main")

	resolved, err := NewResolver().ResolveInputs(root, "svc", []string{"main.go", "*.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc/main.go"}, resolved)
}

func TestResolveInputsAcrossTargets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "dist", "out.txt"), "artifact")
	writeFile(t, filepath.Join(root, "app", "main.py"), "print()")

	resolved, err := NewResolver().ResolveInputs(root, "app", []string{"main.py", "../lib/dist/out.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app/main.py", "lib/dist/out.txt"}, resolved)
}

func TestResolveInputsNoMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "svc", "main.go"), "package main")

	_, err := NewResolver().ResolveInputs(root, "svc", []string{"*.rs"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoMatch))
}

func TestResolveInputsEmptyPatterns(t *testing.T) {
	resolved, err := NewResolver().ResolveInputs(t.TempDir(), ".", nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
