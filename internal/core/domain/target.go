// Package domain contains the core domain models for the build pipeline.
package domain

// ManifestFilename is the per-directory manifest that marks a build target.
const ManifestFilename = "BUILD.yaml"

// WorkspaceMarker is the file that marks the workspace root.
const WorkspaceMarker = "WORKSPACE"

// StageName identifies one of the five pipeline stages.
type StageName string

const (
	StagePrepare StageName = "prepare"
	StageBuild   StageName = "build"
	StageTest    StageName = "test"
	StageDeploy  StageName = "deploy"
	StageDevelop StageName = "develop"
)

// Secret references a host directory to be mounted into a build.
type Secret struct {
	Src    string
	Target string
}

// Stage is a single named step of a target's pipeline.
type Stage struct {
	Name       StageName
	Image      string
	Inputs     []string
	Commands   []string
	Outputs    []string
	Entrypoint string
	// Environment is injected into develop containers.
	Environment map[string]string
	// Ports are host:container mappings for develop containers.
	Ports []int
	// Command overrides the container command for develop.
	Command string
	// Tag is an explicit output image name for build.
	Tag       string
	PushImage bool
	PassSSH   bool
	Secrets   map[string]Secret
	Chown     string
	// ExternalImages maps a stage alias to an image reference for
	// multi-stage COPY --from.
	ExternalImages map[string]string
}

// Target is a buildable unit identified by its workspace-relative
// directory path. It is immutable for the duration of one invocation.
type Target struct {
	// Path is the directory relative to the workspace root. "." for
	// targets at the root itself.
	Path string
	// Name is the image repository prefix declared in the manifest.
	Name string

	steps map[StageName]*Stage
}

// NewTarget creates a Target from its manifest fields.
func NewTarget(path, name string, steps map[StageName]*Stage) *Target {
	return &Target{Path: path, Name: name, steps: steps}
}

// Stage returns the named stage, or false if the manifest omits it.
func (t *Target) Stage(name StageName) (*Stage, bool) {
	s, ok := t.steps[name]
	return s, ok
}

// HasStage reports whether the manifest declares the named stage.
func (t *Target) HasStage(name StageName) bool {
	_, ok := t.steps[name]
	return ok
}
