// Package app implements the application layer for brick.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/zerr"

	"go.brick.build/brick/internal/adapters/fs"
	"go.brick.build/brick/internal/adapters/git"
	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.brick.build/brick/internal/engine/pipeline"
)

// DefaultExcludes are directory names never descended into when
// discovering targets. Dependency caches routinely hold thousands of
// files and never carry manifests.
var DefaultExcludes = []string{"node_modules", ".venv", "__pycache__", ".git"}

// RunOptions are the per-invocation switches shared by all stage
// commands.
type RunOptions struct {
	// Recursive runs the stage for every target below the workspace
	// root instead of the current directory's target.
	Recursive bool
	// SkipPreviousSteps reuses existing prior-stage images.
	SkipPreviousSteps bool
	// NoCache bypasses all caches and builds fresh.
	NoCache bool
	// Excludes supplements DefaultExcludes during discovery.
	Excludes []string
}

// App wires the pipeline collaborators to CLI invocations. One App
// serves one process; each stage invocation gets a fresh pipeline.
type App struct {
	loader    ports.ConfigLoader
	resolver  ports.InputResolver
	hasher    ports.Hasher
	engine    ports.ImageEngine
	store     ports.TagStore
	discovery ports.TargetDiscoverer
	logger    ports.Logger
	telemetry ports.Telemetry
	clock     clockwork.Clock
	git       git.Info

	// findRoot is swappable in tests.
	findRoot func(start string) (string, error)
}

// New creates an App with production collaborators.
func New(
	loader ports.ConfigLoader,
	resolver ports.InputResolver,
	hasher ports.Hasher,
	engine ports.ImageEngine,
	store ports.TagStore,
	discovery ports.TargetDiscoverer,
	logger ports.Logger,
	telemetry ports.Telemetry,
	info git.Info,
) *App {
	return &App{
		loader:    loader,
		resolver:  resolver,
		hasher:    hasher,
		engine:    engine,
		store:     store,
		discovery: discovery,
		logger:    logger,
		telemetry: telemetry,
		clock:     clockwork.NewRealClock(),
		git:       info,
		findRoot:  fs.FindRoot,
	}
}

// Stage runs one pipeline stage for the target containing dir, or for
// every discovered target when opts.Recursive is set.
func (a *App) Stage(ctx context.Context, stage domain.StageName, dir string, opts RunOptions) error {
	root, target, err := a.locate(dir)
	if err != nil {
		return err
	}

	p := a.pipeline(root, opts)
	if opts.Recursive {
		err = p.RunAll(ctx, stage, a.excludes(opts))
	} else {
		_, err = p.Run(ctx, stage, target)
	}

	if report := p.Report().String(); report != "" {
		a.logger.Info("\n" + report)
	}
	return err
}

// List returns the workspace-relative paths of every buildable target
// below the workspace containing dir.
func (a *App) List(dir string, opts RunOptions) ([]string, error) {
	root, _, err := a.locate(dir)
	if err != nil {
		return nil, err
	}
	return a.pipeline(root, opts).Targets(a.excludes(opts))
}

// Prune removes stale images of the target containing dir, or of every
// target when opts.Recursive is set. Images still tagged latest or with
// the main branch are kept.
func (a *App) Prune(ctx context.Context, dir string, olderThan time.Duration, force bool, opts RunOptions) error {
	root, target, err := a.locate(dir)
	if err != nil {
		return err
	}
	p := a.pipeline(root, opts)

	targets := []string{target}
	if opts.Recursive {
		targets, err = p.Targets(a.excludes(opts))
		if err != nil {
			return err
		}
	}

	total := 0
	for _, target := range targets {
		removed, err := p.Prune(ctx, target, olderThan, force)
		total += len(removed)
		if err != nil {
			return zerr.With(err, "target", target)
		}
	}
	a.logger.Info(fmt.Sprintf("removed %d image(s)", total))
	return nil
}

func (a *App) pipeline(root string, opts RunOptions) *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Loader:    a.loader,
		Resolver:  a.resolver,
		Hasher:    a.hasher,
		Engine:    a.engine,
		Store:     a.store,
		Discovery: a.discovery,
		Logger:    a.logger,
		Telemetry: a.telemetry,
		Clock:     a.clock,
	}, root, git.SanitizeBranch(a.git.Branch), git.SanitizeBranch(a.git.MainBranch), pipeline.Options{
		SkipPreviousSteps: opts.SkipPreviousSteps,
		NoCache:           opts.NoCache,
	})
}

// locate finds the workspace root above dir and dir's path relative to
// it.
func (a *App) locate(dir string) (root, target string, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", zerr.Wrap(err, "resolving directory")
	}
	root, err = a.findRoot(abs)
	if err != nil {
		return "", "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", "", zerr.Wrap(err, "relativizing target path")
	}
	return root, filepath.ToSlash(rel), nil
}

func (a *App) excludes(opts RunOptions) []string {
	return append(append([]string{}, DefaultExcludes...), opts.Excludes...)
}
