package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
)

// Tag applies every reference to the image.
func (e *Engine) Tag(ctx context.Context, image string, tags []domain.ImageReference) error {
	for _, ref := range tags {
		e.logger.Debug("tagging " + image + " as " + ref.String())
		if _, err := e.docker(ctx, "tag", image, ref.String()); err != nil {
			return err
		}
	}
	return nil
}

// ImagesWithLabel lists references of images carrying the label pair.
func (e *Engine) ImagesWithLabel(ctx context.Context, key, value string) ([]domain.ImageReference, error) {
	out, err := e.docker(ctx, "images",
		"--filter", "label="+key+"="+value,
		"--format", "{{.Repository}}:{{.Tag}}")
	if err != nil {
		return nil, err
	}

	var refs []domain.ImageReference
	for line := range strings.Lines(out) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "<none>") {
			continue
		}
		ref, err := domain.ParseImageReference(line)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// ImageExists reports whether the reference resolves locally.
func (e *Engine) ImageExists(ctx context.Context, ref domain.ImageReference) (bool, error) {
	cmd := exec.CommandContext(ctx, "docker", "image", "inspect", ref.String())
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return false, zerr.Wrap(ctx.Err(), "image lookup interrupted")
		}
		return false, nil
	}
	return true, nil
}

// Push uploads the reference to its remote registry.
func (e *Engine) Push(ctx context.Context, ref domain.ImageReference) error {
	cmd := exec.CommandContext(ctx, "docker", "push", ref.String())
	var diag bytes.Buffer
	cmd.Stdout = &diag
	cmd.Stderr = &diag
	if err := cmd.Run(); err != nil {
		return engineError(err, "push", diag.String())
	}
	return nil
}

// ExtractPath copies containerPath out of the image onto hostPath,
// replacing any existing host path. A missing container path is
// reported as the retryable domain.ErrExtractPathMissing.
func (e *Engine) ExtractPath(ctx context.Context, image, containerPath, hostPath string) error {
	containerID, err := e.docker(ctx, "create", image)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = e.docker(context.WithoutCancel(ctx), "rm", "-f", containerID)
	}()

	if err := os.RemoveAll(hostPath); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace existing output"), "path", hostPath)
	}

	cmd := exec.CommandContext(ctx, "docker", "cp", containerID+":"+containerPath, hostPath)
	var diag bytes.Buffer
	cmd.Stdout = &diag
	cmd.Stderr = &diag
	if err := cmd.Run(); err != nil {
		msg := diag.String()
		if strings.Contains(msg, "Could not find the file") ||
			strings.Contains(msg, "No such container:path") ||
			strings.Contains(msg, "no such file or directory") {
			return zerr.With(zerr.Wrap(domain.ErrExtractPathMissing, "path does not exist in the image"), "path", containerPath)
		}
		return engineError(err, "cp", msg)
	}
	return nil
}

type inspectedImage struct {
	ID       string   `json:"Id"`
	RepoTags []string `json:"RepoTags"`
	Size     int64    `json:"Size"`
	Metadata struct {
		LastTagTime time.Time `json:"LastTagTime"`
	} `json:"Metadata"`
}

// ListImages returns images whose repository starts with prefix. When
// olderThan is non-zero only images last tagged before it are returned.
func (e *Engine) ListImages(ctx context.Context, prefix string, olderThan time.Time) ([]domain.ImageSummary, error) {
	out, err := e.docker(ctx, "images", "--filter", "reference="+prefix+"*", "--format", "{{.ID}}")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var summaries []domain.ImageSummary

	for line := range strings.Lines(out) {
		id := strings.TrimSpace(line)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		img, err := e.inspectImage(ctx, id)
		if err != nil {
			return nil, err
		}
		if !olderThan.IsZero() && !img.Metadata.LastTagTime.Before(olderThan) {
			continue
		}

		summaries = append(summaries, domain.ImageSummary{
			ID:          img.ID,
			Tags:        img.RepoTags,
			Size:        img.Size,
			LastTagTime: img.Metadata.LastTagTime,
		})
	}

	return summaries, nil
}

func (e *Engine) inspectImage(ctx context.Context, id string) (*inspectedImage, error) {
	out, err := e.docker(ctx, "image", "inspect", id, "--format", "{{json .}}")
	if err != nil {
		return nil, err
	}
	var img inspectedImage
	if err := json.Unmarshal([]byte(out), &img); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse image inspect output"), "image", id)
	}
	return &img, nil
}

// DeleteImage removes an image by id.
func (e *Engine) DeleteImage(ctx context.Context, id string, force bool) error {
	args := []string{"rmi"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, id)
	_, err := e.docker(ctx, args...)
	return err
}

// Run starts an interactive container and blocks until it exits.
// Cancelling the context kills the container process rather than
// leaving it orphaned.
func (e *Engine) Run(ctx context.Context, opts ports.RunOptions) error {
	args := []string{"run", "--rm", "-i", "-t"}

	for _, host := range sortedKeys(opts.Volumes) {
		args = append(args, "-v", host+":"+opts.Volumes[host])
	}
	for _, port := range opts.Ports {
		p := strconv.Itoa(port)
		args = append(args, "-p", p+":"+p)
	}
	for _, key := range sortedKeys(opts.Environment) {
		args = append(args, "-e", key+"="+opts.Environment[key])
	}

	image := opts.ImageID
	if image == "" {
		image = opts.Image.String()
	}
	args = append(args, image)
	if opts.Command != "" {
		args = append(args, strings.Fields(opts.Command)...)
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error {
		// Forcibly terminate rather than leaving the container running.
		return cmd.Process.Kill()
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return zerr.Wrap(ctx.Err(), "develop session interrupted")
		}
		return engineError(err, "run", "")
	}
	return nil
}

// docker runs a short docker command, returning its trimmed stdout.
func (e *Engine) docker(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	var out, diag bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &diag
	if err := cmd.Run(); err != nil {
		return "", engineError(err, args[0], diag.String())
	}
	return strings.TrimSpace(out.String()), nil
}
