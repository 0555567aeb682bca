package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

func writeManifest(t *testing.T, root, target, content string) {
	t.Helper()
	dir := filepath.Join(root, target)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ManifestFilename), []byte(content), 0o644))
}

func TestLoaderLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "services/api", `
name: api
steps:
  prepare:
    image: node:22
    inputs:
      - package.json
    commands:
      - npm ci
  build:
    inputs:
      - src/**
    commands:
      - npm run build
    outputs:
      - dist
    tag: registry.example.com/api:1.0
  develop:
    command: sh
    ports:
      - 3000
    environment:
      NODE_ENV: development
`)

	target, err := NewLoader().Load(root, "services/api")
	require.NoError(t, err)

	assert.Equal(t, "api", target.Name)
	assert.Equal(t, "services/api", target.Path)

	prepare, ok := target.Stage(domain.StagePrepare)
	require.True(t, ok)
	assert.Equal(t, "node:22", prepare.Image)
	assert.Equal(t, []string{"package.json"}, prepare.Inputs)

	build, ok := target.Stage(domain.StageBuild)
	require.True(t, ok)
	assert.Equal(t, []string{"dist"}, build.Outputs)
	assert.Equal(t, "registry.example.com/api:1.0", build.Tag)

	develop, ok := target.Stage(domain.StageDevelop)
	require.True(t, ok)
	assert.Equal(t, "sh", develop.Command)
	assert.Equal(t, []int{3000}, develop.Ports)
	assert.Equal(t, map[string]string{"NODE_ENV": "development"}, develop.Environment)

	assert.False(t, target.HasStage(domain.StageDeploy))
}

func TestLoaderLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{name: "missing name", manifest: "steps:\n  build:\n    commands: [make]\n"},
		{name: "unknown stage", manifest: "name: x\nsteps:\n  compile:\n    commands: [make]\n"},
		{name: "prepare without image", manifest: "name: x\nsteps:\n  prepare:\n    commands: [make]\n"},
		{name: "outputs outside build", manifest: "name: x\nsteps:\n  test:\n    outputs: [dist]\n"},
		{name: "malformed yaml", manifest: "name: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeManifest(t, root, "svc", tt.manifest)

			_, err := NewLoader().Load(root, "svc")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfig))
		})
	}
}

func TestLoaderLoadMissingManifest(t *testing.T) {
	_, err := NewLoader().Load(t.TempDir(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfig))
}

func TestLoaderHasManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "svc", "name: svc\n")

	loader := NewLoader()
	assert.True(t, loader.HasManifest(filepath.Join(root, "svc")))
	assert.False(t, loader.HasManifest(root))
}
