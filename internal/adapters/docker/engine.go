// Package docker implements the image engine port over the docker CLI
// with BuildKit enabled.
package docker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.ImageEngine = (*Engine)(nil)

// descriptorFilename is the transient build descriptor written at the
// workspace root. Single-writer per invocation; a leftover file from a
// crashed prior run is overwritten with a warning.
const descriptorFilename = ".brickdockerfile"

// Engine runs builds through the docker CLI.
type Engine struct {
	logger ports.Logger
}

// NewEngine creates a docker Engine.
func NewEngine(logger ports.Logger) *Engine {
	return &Engine{logger: logger}
}

// Build renders the descriptor, writes the transient descriptor file
// and invokes docker build with the workspace root as context. The
// engine's diagnostic stream goes to opts.Progress line by line as it
// arrives.
func (e *Engine) Build(ctx context.Context, root string, desc *domain.Descriptor, opts ports.BuildOptions) (string, bool, error) {
	descPath := filepath.Join(root, descriptorFilename)
	if _, err := os.Stat(descPath); err == nil {
		e.logger.Warn(descPath + " already exists at root of workspace, overwriting")
		_ = os.Remove(descPath)
	}

	if err := os.WriteFile(descPath, []byte(renderDescriptor(desc, opts)), 0o644); err != nil { //nolint:gosec // descriptor is not sensitive
		return "", false, zerr.Wrap(err, "failed to write build descriptor")
	}
	defer os.Remove(descPath) //nolint:errcheck // transient file, removed on every exit path

	secretTars, cleanup, err := e.packSecrets(ctx, root, opts.Secrets)
	if err != nil {
		return "", false, err
	}
	defer cleanup()

	iidFile, err := os.CreateTemp("", "brick-iid-*")
	if err != nil {
		return "", false, zerr.Wrap(err, "failed to create iid file")
	}
	iidPath := iidFile.Name()
	_ = iidFile.Close()
	defer os.Remove(iidPath) //nolint:errcheck // transient file

	args := e.buildArgs(descPath, iidPath, secretTars, opts)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "DOCKER_BUILDKIT=1")

	cached, err := e.streamBuild(cmd, opts.Progress)
	if err != nil {
		return "", false, err
	}

	id, err := readImageID(iidPath)
	if err != nil {
		return "", false, err
	}

	// The engine reports a cache hit when every Run step was satisfied
	// from its layer cache.
	cacheHit := desc.RunCount() > 0 && cached >= desc.RunCount()
	return id, cacheHit, nil
}

func (e *Engine) buildArgs(descPath, iidPath string, secretTars map[string]string, opts ports.BuildOptions) []string {
	args := []string{"build", ".", "--iidfile", iidPath, "-f", descPath}

	for _, key := range sortedKeys(opts.Labels) {
		args = append(args, "--label", key+"="+opts.Labels[key])
	}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.PassSSH {
		args = append(args, "--ssh", "default")
	}
	for _, id := range secretIDs(opts.Secrets) {
		args = append(args, "--secret", "id="+id+",src="+secretTars[id])
	}

	return args
}

// streamBuild runs the build command, forwarding its diagnostic output
// line by line, and counts cached steps.
func (e *Engine) streamBuild(cmd *exec.Cmd, progress io.Writer) (int, error) {
	if progress == nil {
		progress = io.Discard
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, zerr.Wrap(err, "failed to open engine stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, zerr.Wrap(err, "failed to open engine stderr")
	}

	if err := cmd.Start(); err != nil {
		return 0, zerr.Wrap(err, "failed to start engine build")
	}

	var tail tailBuffer
	var cached int

	var eg errgroup.Group
	eg.Go(func() error {
		return forwardLines(stdout, progress, &tail, nil)
	})
	eg.Go(func() error {
		return forwardLines(stderr, progress, &tail, func(line string) {
			if strings.Contains(line, " CACHED") {
				cached++
			}
		})
	})
	pumpErr := eg.Wait()

	if err := cmd.Wait(); err != nil {
		return 0, engineError(err, "build", tail.String())
	}
	if pumpErr != nil {
		return 0, zerr.Wrap(pumpErr, "failed to stream engine output")
	}

	return cached, nil
}

func forwardLines(r io.Reader, w io.Writer, tail *tailBuffer, observe func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(w, line)
		tail.Add(line)
		if observe != nil {
			observe(line)
		}
	}
	return scanner.Err()
}

// packSecrets tars each secret source directory into the workspace root
// so it can be passed as a single BuildKit secret file. Archive names
// are derived from the source path to avoid basename collisions.
func (e *Engine) packSecrets(ctx context.Context, root string, secrets map[string]domain.Secret) (map[string]string, func(), error) {
	tars := make(map[string]string, len(secrets))
	cleanup := func() {
		for _, path := range tars {
			_ = os.Remove(path)
		}
	}

	for _, id := range secretIDs(secrets) {
		src, err := expandUser(secrets[id].Src)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}

		tarPath := filepath.Join(root, fmt.Sprintf("%016x.tar.gz", xxhash.Sum64String(src)))
		cmd := exec.CommandContext(ctx, "tar", "zcf", tarPath, "-C", src, "--exclude=logs", ".")
		var diag bytes.Buffer
		cmd.Stderr = &diag
		if err := cmd.Run(); err != nil {
			cleanup()
			tarErr := zerr.With(zerr.Wrap(err, "failed to archive secret directory"), "secret", id)
			return nil, func() {}, zerr.With(tarErr, "output", diag.String())
		}
		tars[id] = tarPath
	}

	return tars, cleanup, nil
}

func expandUser(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", zerr.Wrap(err, "failed to resolve home directory")
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

func readImageID(iidPath string) (string, error) {
	data, err := os.ReadFile(iidPath) //nolint:gosec // temp file owned by this process
	if err != nil {
		return "", zerr.Wrap(err, "failed to read image id")
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", zerr.New("engine reported no image id")
	}
	return id, nil
}

// engineError surfaces the engine's diagnostics verbatim together with
// its exit code.
func engineError(err error, op, diagnostics string) error {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	wrapped := zerr.With(zerr.Wrap(domain.ErrEngine, "docker "+op+" failed"), "exit_code", code)
	return zerr.With(wrapped, "output", diagnostics)
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// tailBuffer keeps the last lines of engine output for error reports.
// Both stream pumps write to it.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
}

const tailLimit = 50

func (t *tailBuffer) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLimit {
		t.lines = t.lines[len(t.lines)-tailLimit:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
