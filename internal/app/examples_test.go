package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.brick.build/brick/internal/core/domain"
)

// TestExampleWorkspace drives the shipped examples/ workspace through a
// build, verifying the manifests parse and the node output reaches the
// python target.
func TestExampleWorkspace(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.CopyFS(root, os.DirFS(filepath.Join("..", "..", "examples"))))

	engine := newStubEngine()
	a := newTestApp(t, engine)

	err := a.Stage(context.Background(), domain.StageBuild, filepath.Join(root, "python"), RunOptions{})
	require.NoError(t, err)

	// node and python each run prepare and build.
	assert.Equal(t, 4, engine.builds)
	for _, ref := range []string{
		"brick-example-node_prepare:feature-x",
		"brick-example-node_build:feature-x",
		"brick-example-python_prepare:feature-x",
		"brick-example-python_build:feature-x",
	} {
		assert.True(t, engine.refs[ref], ref)
	}

	// The node build output was extracted onto the host for python to
	// consume.
	_, err = os.Stat(filepath.Join(root, "node", "dist"))
	assert.NoError(t, err)

	targets, err := a.List(root, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "python"}, targets)
}
