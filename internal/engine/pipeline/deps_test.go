package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

func depsFixture(t *testing.T) (*Pipeline, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.WorkspaceMarker), "")

	writeFile(t, filepath.Join(root, "lib", domain.ManifestFilename), `
name: lib
steps:
  build:
    image: alpine:3
    inputs: [src]
    commands: [make]
    outputs: [dist]
`)
	writeFile(t, filepath.Join(root, "tools", domain.ManifestFilename), `
name: tools
steps:
  prepare:
    image: alpine:3
    commands: [apk add curl]
`)

	return newTestPipeline(t, root, newFakeEngine(), "main", Options{}), root
}

func target(t *testing.T, p *Pipeline, root, path string) *domain.Target {
	t.Helper()
	tgt, err := p.loader.Load(root, path)
	require.NoError(t, err)
	return tgt
}

func TestDependenciesMatchesOutputDirectory(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"main.py", "../lib/dist"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib"}, deps)
}

func TestDependenciesMatchesFileUnderOutput(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../lib/dist/bundle/out.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib"}, deps)
}

func TestDependenciesGlobPattern(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../lib/dist/**/*.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib"}, deps)
}

func TestDependenciesBraceExpansion(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "other", domain.ManifestFilename), `
name: other
steps:
  build:
    image: alpine:3
    commands: [make]
    outputs: [gen]
`)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../{lib/dist,other/gen}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "other"}, deps)
}

func TestDependenciesIgnoresOwnFiles(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	writeFile(t, filepath.Join(root, "app", "src", "main.py"), "x")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"src/main.py", "src/**"})
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependenciesIgnoresNonOutputInputs(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	// lib/src is a declared input of lib, not an output.
	deps, err := p.dependencies(app, []string{"../lib/src"})
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependenciesIgnoresTargetsWithoutBuild(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../tools/bin"})
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependenciesIgnoresPathsOutsideWorkspace(t *testing.T) {
	p, root := depsFixture(t)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../../elsewhere/dist"})
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependenciesNestedTargetShadowsAncestor(t *testing.T) {
	p, root := depsFixture(t)
	// A target nested inside lib. Its manifest is found first on the
	// upward walk, so lib's outputs are never consulted.
	writeFile(t, filepath.Join(root, "lib", "nested", domain.ManifestFilename), `
name: nested
steps:
  build:
    image: alpine:3
    commands: [make]
    outputs: [out]
`)
	writeFile(t, filepath.Join(root, "app", domain.ManifestFilename), "name: app\n")
	app := target(t, p, root, "app")

	deps, err := p.dependencies(app, []string{"../lib/nested/out"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/nested"}, deps)

	deps, err = p.dependencies(app, []string{"../lib/nested/unrelated"})
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestCyclePath(t *testing.T) {
	assert.Equal(t, "a -> b -> a", cyclePath([]string{"a", "b"}, "a"))
	assert.Equal(t, "b -> c -> b", cyclePath([]string{"a", "b", "c"}, "b"))
}
