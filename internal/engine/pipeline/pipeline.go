// Package pipeline implements the staged build state machine: for each
// target it advances prepare, build, test, deploy and develop stages,
// resolving cross-target dependencies and reusing cached stage images
// wherever the dependency hash still matches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.trai.ch/zerr"

	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
)

// State tracks how far a target has advanced in one invocation.
type State int

const (
	StateNotStarted State = iota
	StatePrepared
	StateBuilt
	StateTested
	StateDeployed
)

func (s State) String() string {
	switch s {
	case StatePrepared:
		return "prepared"
	case StateBuilt:
		return "built"
	case StateTested:
		return "tested"
	case StateDeployed:
		return "deployed"
	default:
		return "not started"
	}
}

// Options are the invocation-wide switches.
type Options struct {
	// SkipPreviousSteps reuses the branch's existing image of the prior
	// stage instead of re-running it.
	SkipPreviousSteps bool
	// NoCache forces fresh engine builds, bypassing layer caches.
	NoCache bool
}

// Deps are the collaborators a Pipeline needs.
type Deps struct {
	Loader    ports.ConfigLoader
	Resolver  ports.InputResolver
	Hasher    ports.Hasher
	Engine    ports.ImageEngine
	Store     ports.TagStore
	Discovery ports.TargetDiscoverer
	Logger    ports.Logger
	Telemetry ports.Telemetry
	Clock     clockwork.Clock
}

// Pipeline executes stages for the targets of one workspace. It is
// built per invocation and not safe for concurrent use.
type Pipeline struct {
	root       string
	branch     string
	mainBranch string
	opts       Options

	loader    ports.ConfigLoader
	resolver  ports.InputResolver
	hasher    ports.Hasher
	engine    ports.ImageEngine
	discovery ports.TargetDiscoverer
	logger    ports.Logger
	telemetry ports.Telemetry
	clock     clockwork.Clock
	cache     *cache

	states   map[string]State
	done     map[string]*StageResult
	visiting map[string]bool
	stack    []string
	report   *Report
}

// New creates a Pipeline rooted at the workspace directory. Branch
// names must already be sanitized for use as image tags.
func New(deps Deps, root, branch, mainBranch string, opts Options) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		root:       root,
		branch:     branch,
		mainBranch: mainBranch,
		opts:       opts,
		loader:     deps.Loader,
		resolver:   deps.Resolver,
		hasher:     deps.Hasher,
		engine:     deps.Engine,
		discovery:  deps.Discovery,
		logger:     deps.Logger,
		telemetry:  deps.Telemetry,
		clock:      clock,
		cache:      &cache{engine: deps.Engine, store: deps.Store, logger: deps.Logger},
		states:     map[string]State{},
		done:       map[string]*StageResult{},
		visiting:   map[string]bool{},
		report:     &Report{},
	}
}

// Report returns the timings accumulated so far.
func (p *Pipeline) Report() *Report {
	return p.report
}

// State returns how far a target has advanced in this invocation.
func (p *Pipeline) State(target string) State {
	return p.states[target]
}

// Targets lists the workspace's buildable directories.
func (p *Pipeline) Targets(excludes []string) ([]string, error) {
	return p.discovery.DiscoverTargets(p.root, excludes)
}

// Run executes one stage for the target at the workspace-relative path.
func (p *Pipeline) Run(ctx context.Context, stage domain.StageName, target string) (*StageResult, error) {
	t, err := p.loader.Load(p.root, target)
	if err != nil {
		return nil, err
	}
	switch stage {
	case domain.StagePrepare:
		return p.prepare(ctx, t)
	case domain.StageBuild:
		return p.build(ctx, t)
	case domain.StageTest:
		return p.test(ctx, t)
	case domain.StageDeploy:
		return p.deploy(ctx, t)
	case domain.StageDevelop:
		return p.develop(ctx, t)
	}
	return nil, zerr.With(zerr.New("unknown stage"), "stage", string(stage))
}

// RunAll executes one stage for every discovered target, in path order.
// The first failure aborts the remaining targets.
func (p *Pipeline) RunAll(ctx context.Context, stage domain.StageName, excludes []string) error {
	targets, err := p.Targets(excludes)
	if err != nil {
		return err
	}
	for _, target := range targets {
		if _, err := p.Run(ctx, stage, target); err != nil {
			return zerr.With(err, "target", target)
		}
	}
	return nil
}

// prepare materializes the target's dependency image. Its cache key
// covers the declared inputs, the base image and the manifest itself,
// so edited commands invalidate the stage.
func (p *Pipeline) prepare(ctx context.Context, t *domain.Target) (res *StageResult, err error) {
	if r, ok := p.done[stageKey(t, domain.StagePrepare)]; ok {
		return r, nil
	}
	stage, ok := t.Stage(domain.StagePrepare)
	if !ok {
		return p.absent(t, domain.StagePrepare), nil
	}

	start := p.clock.Now()
	ctx, vtx := p.telemetry.Record(ctx, vertexName(t, domain.StagePrepare))
	defer func() { vtx.Complete(err) }()

	inputs, err := p.resolver.ResolveInputs(p.root, t.Path, stage.Inputs)
	if err != nil {
		return nil, err
	}
	keyInputs := append(append([]string{}, inputs...), path.Join(t.Path, domain.ManifestFilename))
	key, err := p.hasher.ComputeHash(stage.Image, p.root, keyInputs)
	if err != nil {
		return nil, err
	}

	tags := domain.StageTags(t.Name, domain.StagePrepare, p.branch)
	res, err = p.materialize(ctx, vtx, t, domain.StagePrepare, stage, inputs, tags, key.String(), stage.Image)
	if err != nil {
		return nil, err
	}
	res.Duration = p.clock.Since(start)
	p.finish(t, domain.StagePrepare, StatePrepared, res)
	return res, nil
}

// build materializes the target's artifact image, building any targets
// whose outputs feed this one first, then extracts declared outputs
// back into the workspace.
func (p *Pipeline) build(ctx context.Context, t *domain.Target) (res *StageResult, err error) {
	if r, ok := p.done[stageKey(t, domain.StageBuild)]; ok {
		return r, nil
	}
	stage, ok := t.Stage(domain.StageBuild)
	if !ok {
		return p.absent(t, domain.StageBuild), nil
	}

	if p.visiting[t.Path] {
		return nil, zerr.With(zerr.Wrap(domain.ErrDependencyCycle, "targets depend on each other"),
			"cycle", cyclePath(p.stack, t.Path))
	}
	p.visiting[t.Path] = true
	p.stack = append(p.stack, t.Path)
	defer func() {
		delete(p.visiting, t.Path)
		p.stack = p.stack[:len(p.stack)-1]
	}()

	if err := validateOutputs(t, stage.Outputs); err != nil {
		return nil, err
	}

	deps, err := p.dependencies(t, stage.Inputs)
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		if dep == t.Path {
			continue
		}
		dt, err := p.loader.Load(p.root, dep)
		if err != nil {
			return nil, err
		}
		if _, err := p.build(ctx, dt); err != nil {
			return nil, err
		}
	}

	from, identity, err := p.priorImage(ctx, t, domain.StagePrepare, p.prepare)
	if err != nil {
		return nil, err
	}
	if from == "" {
		if stage.Image == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "build needs a prepare stage or an image"),
				"target", t.Path)
		}
		from, identity = stage.Image, stage.Image
	}

	start := p.clock.Now()
	ctx, vtx := p.telemetry.Record(ctx, vertexName(t, domain.StageBuild))
	defer func() { vtx.Complete(err) }()

	// Inputs resolve after dependencies built so their outputs exist.
	inputs, err := p.resolver.ResolveInputs(p.root, t.Path, stage.Inputs)
	if err != nil {
		return nil, err
	}
	var key string
	if len(inputs) > 0 {
		h, err := p.hasher.ComputeHash(identity, p.root, inputs)
		if err != nil {
			return nil, err
		}
		key = h.String()
	}

	tags := append(domain.StageTags(t.Name, domain.StageBuild, p.branch), p.publishTags(t, stage)...)
	res, err = p.materialize(ctx, vtx, t, domain.StageBuild, stage, inputs, tags, key, from)
	if err != nil {
		return nil, err
	}
	if err := p.extractOutputs(ctx, t, stage, res); err != nil {
		return nil, err
	}
	res.Duration = p.clock.Since(start)
	p.finish(t, domain.StageBuild, StateBuilt, res)
	return res, nil
}

// test runs the target's checks on top of the built image. Tests are
// never cache-skipped.
func (p *Pipeline) test(ctx context.Context, t *domain.Target) (res *StageResult, err error) {
	if r, ok := p.done[stageKey(t, domain.StageTest)]; ok {
		return r, nil
	}
	stage, ok := t.Stage(domain.StageTest)
	if !ok {
		return p.absent(t, domain.StageTest), nil
	}

	from, _, err := p.priorImage(ctx, t, domain.StageBuild, p.build)
	if err != nil {
		return nil, err
	}
	if from == "" {
		if stage.Image == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "test needs a build stage or an image"),
				"target", t.Path)
		}
		from = stage.Image
	}

	start := p.clock.Now()
	ctx, vtx := p.telemetry.Record(ctx, vertexName(t, domain.StageTest))
	defer func() { vtx.Complete(err) }()

	inputs, err := p.resolver.ResolveInputs(p.root, t.Path, stage.Inputs)
	if err != nil {
		return nil, err
	}

	desc := stageDescriptor(from, inputs, stage, t.Path)
	id, cached, err := p.engine.Build(ctx, p.root, desc, p.buildOptions(stage, "", vtx))
	if err != nil {
		return nil, err
	}
	if cached {
		vtx.Cached()
	}
	tags := domain.StageTags(t.Name, domain.StageTest, p.branch)
	if err := p.engine.Tag(ctx, id, tags); err != nil {
		return nil, err
	}

	res = &StageResult{
		Target:   t.Path,
		Stage:    domain.StageTest,
		Image:    domain.MostSpecific(tags).String(),
		Decision: domain.DecisionBuild,
		Duration: p.clock.Since(start),
	}
	p.finish(t, domain.StageTest, StateTested, res)
	return res, nil
}

// deploy assembles the shippable image from the nearest prior stage and
// optionally pushes it under the stage's explicit tag.
func (p *Pipeline) deploy(ctx context.Context, t *domain.Target) (res *StageResult, err error) {
	if r, ok := p.done[stageKey(t, domain.StageDeploy)]; ok {
		return r, nil
	}
	stage, ok := t.Stage(domain.StageDeploy)
	if !ok {
		return p.absent(t, domain.StageDeploy), nil
	}

	var prior string
	switch {
	case t.HasStage(domain.StageTest):
		prior, _, err = p.priorImage(ctx, t, domain.StageTest, p.test)
	case t.HasStage(domain.StageBuild):
		prior, _, err = p.priorImage(ctx, t, domain.StageBuild, p.build)
	}
	if err != nil {
		return nil, err
	}

	var publish []domain.ImageReference
	if stage.Tag != "" {
		ref, err := domain.ParseImageReference(stage.Tag)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "invalid deploy tag"), "target", t.Path)
		}
		publish = append(publish, ref)
	} else if stage.PushImage {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "push_image needs an explicit tag"),
			"target", t.Path)
	}

	start := p.clock.Now()
	ctx, vtx := p.telemetry.Record(ctx, vertexName(t, domain.StageDeploy))
	defer func() { vtx.Complete(err) }()

	image := prior
	if len(stage.Commands) > 0 || len(stage.Inputs) > 0 || stage.Image != "" {
		inputs, err := p.resolver.ResolveInputs(p.root, t.Path, stage.Inputs)
		if err != nil {
			return nil, err
		}
		var desc *domain.Descriptor
		switch {
		case stage.Image != "" && prior != "":
			desc = layeredDescriptor(prior, inputs, stage, t.Path, buildOutputs(t))
		case stage.Image != "":
			desc = stageDescriptor(stage.Image, inputs, stage, t.Path)
		case prior != "":
			desc = stageDescriptor(prior, inputs, stage, t.Path)
		default:
			return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "deploy needs a prior stage or an image"),
				"target", t.Path)
		}
		id, cached, err := p.engine.Build(ctx, p.root, desc, p.buildOptions(stage, "", vtx))
		if err != nil {
			return nil, err
		}
		if cached {
			vtx.Cached()
		}
		image = id
	}
	if image == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "deploy needs a prior stage or an image"),
			"target", t.Path)
	}

	tags := append(domain.StageTags(t.Name, domain.StageDeploy, p.branch), publish...)
	if err := p.engine.Tag(ctx, image, tags); err != nil {
		return nil, err
	}
	if stage.PushImage {
		for _, ref := range publish {
			p.logger.Info(fmt.Sprintf("pushing %s", ref))
			if err := p.engine.Push(ctx, ref); err != nil {
				return nil, err
			}
		}
	}

	res = &StageResult{
		Target:   t.Path,
		Stage:    domain.StageDeploy,
		Image:    domain.MostSpecific(tags).String(),
		Decision: domain.DecisionBuild,
		Duration: p.clock.Since(start),
	}
	p.finish(t, domain.StageDeploy, StateDeployed, res)
	return res, nil
}

// develop prepares the target, then drops into an interactive container
// with the declared inputs bind-mounted from the workspace. Never
// cache-skipped and never recorded as telemetry: the terminal belongs
// to the container.
func (p *Pipeline) develop(ctx context.Context, t *domain.Target) (*StageResult, error) {
	stage, ok := t.Stage(domain.StageDevelop)
	if !ok {
		return p.absent(t, domain.StageDevelop), nil
	}

	prep, err := p.prepare(ctx, t)
	if err != nil {
		return nil, err
	}
	image := prep.Image
	if image == "" {
		image = stage.Image
	}
	if image == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "develop needs a prepare stage or an image"),
			"target", t.Path)
	}
	ref, err := domain.ParseImageReference(image)
	if err != nil {
		return nil, err
	}

	// Declared inputs are mounted rather than copied so edits on the
	// host land in the running container.
	mounts := stage.Inputs
	if len(mounts) == 0 {
		if build, ok := t.Stage(domain.StageBuild); ok {
			mounts = build.Inputs
		}
	}
	volumes := map[string]string{}
	for _, in := range mounts {
		for _, expanded := range p.resolver.ExpandBraces(in) {
			base := globBase(expanded)
			if base == "" {
				continue
			}
			host := filepath.Join(p.root, filepath.FromSlash(t.Path), filepath.FromSlash(base))
			volumes[host] = containerPath(t.Path, base)
		}
	}

	start := p.clock.Now()
	p.logger.Info(fmt.Sprintf("starting develop container for %s from %s", t.Path, ref))
	err = p.engine.Run(ctx, ports.RunOptions{
		Image:       ref,
		Command:     stage.Command,
		Volumes:     volumes,
		Ports:       stage.Ports,
		Environment: stage.Environment,
	})
	if err != nil {
		return nil, err
	}

	res := &StageResult{
		Target:   t.Path,
		Stage:    domain.StageDevelop,
		Image:    ref.String(),
		Decision: domain.DecisionBuild,
		Duration: p.clock.Since(start),
	}
	p.report.add(res)
	return res, nil
}

// Prune deletes a target's stale images, keeping anything still tagged
// latest or with the main branch.
func (p *Pipeline) Prune(ctx context.Context, target string, olderThan time.Duration, force bool) ([]domain.ImageSummary, error) {
	t, err := p.loader.Load(p.root, target)
	if err != nil {
		return nil, err
	}
	var cutoff time.Time
	if olderThan > 0 {
		cutoff = p.clock.Now().Add(-olderThan)
	}
	images, err := p.engine.ListImages(ctx, t.Name, cutoff)
	if err != nil {
		return nil, err
	}

	var removed []domain.ImageSummary
	for _, img := range images {
		if protectedImage(img, p.mainBranch) {
			continue
		}
		if err := p.engine.DeleteImage(ctx, img.ID, force); err != nil {
			return removed, err
		}
		p.logger.Info(fmt.Sprintf("removed %s (%s)", img.ID, strings.Join(img.Tags, ", ")))
		removed = append(removed, img)
	}
	return removed, nil
}

// protectedImage reports whether an image carries a tag prune must
// never remove.
func protectedImage(img domain.ImageSummary, mainBranch string) bool {
	for _, tag := range img.Tags {
		ref, err := domain.ParseImageReference(tag)
		if err != nil {
			continue
		}
		if ref.Tag == domain.LatestTag || ref.Tag == mainBranch {
			return true
		}
	}
	return false
}

// materialize runs the skip/promote/build decision for a stage and
// leaves every desired tag pointing at an image carrying the cache key.
func (p *Pipeline) materialize(
	ctx context.Context,
	vtx ports.Vertex,
	t *domain.Target,
	name domain.StageName,
	stage *domain.Stage,
	inputs []string,
	tags []domain.ImageReference,
	key string,
	from string,
) (*StageResult, error) {
	dec, err := p.cache.resolve(ctx, tags, key)
	if err != nil {
		return nil, err
	}

	res := &StageResult{Target: t.Path, Stage: name, Decision: dec.Kind, CacheKey: key}
	switch dec.Kind {
	case domain.DecisionSkip:
		vtx.Cached()
		p.logger.Info(fmt.Sprintf("%s %s unchanged, skipping", t.Path, name))
		res.Image = dec.Tag.String()

	case domain.DecisionPromote:
		p.logger.Info(fmt.Sprintf("%s %s matches %s, promoting", t.Path, name, dec.From))
		if err := p.cache.promote(ctx, dec.From, tags, key); err != nil {
			return nil, err
		}
		vtx.Cached()
		res.Image = domain.MostSpecific(tags).String()

	case domain.DecisionBuild:
		desc := stageDescriptor(from, inputs, stage, t.Path)
		id, cached, err := p.engine.Build(ctx, p.root, desc, p.buildOptions(stage, key, vtx))
		if err != nil {
			return nil, err
		}
		if cached {
			vtx.Cached()
		}
		if err := p.cache.record(ctx, id, tags, key); err != nil {
			return nil, err
		}
		res.Image = domain.MostSpecific(tags).String()
	}
	return res, nil
}

func (p *Pipeline) buildOptions(stage *domain.Stage, key string, vtx ports.Vertex) ports.BuildOptions {
	opts := ports.BuildOptions{
		NoCache:  p.opts.NoCache,
		PassSSH:  stage.PassSSH,
		Secrets:  stage.Secrets,
		Progress: vtx.Stderr(),
	}
	if key != "" {
		opts.Labels = map[string]string{LabelKey: key}
	}
	return opts
}

// priorImage returns the image the stage builds on together with its
// identity for hashing: the prior stage's branch-independent cache key
// when known, the tag otherwise. Both are empty when the manifest omits
// the prior stage.
func (p *Pipeline) priorImage(
	ctx context.Context,
	t *domain.Target,
	prior domain.StageName,
	run func(context.Context, *domain.Target) (*StageResult, error),
) (image, identity string, err error) {
	if !t.HasStage(prior) {
		return "", "", nil
	}
	if p.opts.SkipPreviousSteps {
		tag := domain.MostSpecific(domain.StageTags(t.Name, prior, p.branch))
		ok, err := p.engine.ImageExists(ctx, tag)
		if err != nil {
			return "", "", err
		}
		if ok {
			p.logger.Debug(fmt.Sprintf("reusing %s for %s", tag, t.Path))
			return tag.String(), tag.String(), nil
		}
		p.logger.Warn(fmt.Sprintf("no %s image to reuse, running %s for %s", tag, prior, t.Path))
	}
	res, err := run(ctx, t)
	if err != nil {
		return "", "", err
	}
	if res.Skipped {
		return "", "", nil
	}
	identity = res.CacheKey
	if identity == "" {
		identity = res.Image
	}
	return res.Image, identity, nil
}

// publishTags returns the plain image-family tags built alongside the
// build stage's internal tags. An explicit tag with a version pins a
// single reference; otherwise latest and branch variants of the name.
func (p *Pipeline) publishTags(t *domain.Target, stage *domain.Stage) []domain.ImageReference {
	name := stage.Tag
	if name == "" {
		name = t.Name
	}
	if strings.Contains(name, ":") {
		ref, err := domain.ParseImageReference(name)
		if err != nil {
			return nil
		}
		return []domain.ImageReference{ref}
	}
	return domain.RepositoryTags(name, p.branch)
}

// extractOutputs copies declared build outputs from the stage image
// back into the target directory. A cache skip re-extracts only outputs
// missing from the workspace.
func (p *Pipeline) extractOutputs(ctx context.Context, t *domain.Target, stage *domain.Stage, res *StageResult) error {
	for _, out := range stage.Outputs {
		hostPath := filepath.Join(p.root, filepath.FromSlash(t.Path), filepath.FromSlash(out))
		if res.Decision == domain.DecisionSkip {
			if _, err := os.Stat(hostPath); err == nil {
				continue
			}
		}
		if err := p.extractOutput(ctx, res.Image, containerPath(t.Path, out), hostPath); err != nil {
			err = zerr.With(err, "output", out)
			return zerr.With(err, "target", t.Path)
		}
	}
	return nil
}

const extractRetryDelay = time.Second

// extractOutput retries a missing path once: outputs written by the
// image's last layer are occasionally not yet visible to the export.
func (p *Pipeline) extractOutput(ctx context.Context, image, containerLoc, hostPath string) error {
	err := p.engine.ExtractPath(ctx, image, containerLoc, hostPath)
	if err == nil || !errors.Is(err, domain.ErrExtractPathMissing) {
		return err
	}
	p.logger.Warn(fmt.Sprintf("%s not yet present in %s, retrying", containerLoc, image))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(extractRetryDelay):
	}
	return p.engine.ExtractPath(ctx, image, containerLoc, hostPath)
}

// validateOutputs rejects outputs that would escape the target
// directory when extracted.
func validateOutputs(t *domain.Target, outputs []string) error {
	for _, out := range outputs {
		clean := path.Clean(out)
		if path.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidOutput, "output escapes the target directory"), "output", out)
			return zerr.With(err, "target", t.Path)
		}
	}
	return nil
}

// buildOutputs returns the target's declared build outputs, if any.
func buildOutputs(t *domain.Target) []string {
	if build, ok := t.Stage(domain.StageBuild); ok {
		return build.Outputs
	}
	return nil
}

// globBase returns the pattern prefix up to the first glob metacharacter,
// trimmed to a whole path element. A pattern that is all glob returns "".
func globBase(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		cut := strings.LastIndex(pattern[:i], "/")
		if cut < 0 {
			return ""
		}
		return pattern[:cut]
	}
	return pattern
}

// absent records a no-op result for a stage the manifest omits.
func (p *Pipeline) absent(t *domain.Target, stage domain.StageName) *StageResult {
	p.logger.Debug(fmt.Sprintf("%s has no %s stage", t.Path, stage))
	res := &StageResult{Target: t.Path, Stage: stage, Skipped: true}
	p.done[stageKey(t, stage)] = res
	return res
}

func (p *Pipeline) finish(t *domain.Target, stage domain.StageName, state State, res *StageResult) {
	p.done[stageKey(t, stage)] = res
	if p.states[t.Path] < state {
		p.states[t.Path] = state
	}
	p.report.add(res)
}

func stageKey(t *domain.Target, stage domain.StageName) string {
	return t.Path + ":" + string(stage)
}

func vertexName(t *domain.Target, stage domain.StageName) string {
	return fmt.Sprintf("%s [%s]", t.Path, stage)
}
