package pipeline

import (
	"path"
	"sort"

	"go.brick.build/brick/internal/core/domain"
)

// containerHome is where stage images mirror the workspace. Every copied
// input keeps its workspace-relative path below it, so commands of one
// target can address another target's files the same way on every host.
const containerHome = "/home"

func containerPath(parts ...string) string {
	return path.Join(append([]string{containerHome}, parts...)...)
}

// experimentalSyntax enables BuildKit ssh and secret mounts.
const experimentalSyntax = "docker/dockerfile:experimental"

// stageDescriptor assembles the typed descriptor for an image-producing
// stage: external helper stages, base image, copied inputs, workdir at
// the target's mirror, then the stage commands.
func stageDescriptor(from string, inputs []string, stage *domain.Stage, targetPath string) *domain.Descriptor {
	d := &domain.Descriptor{}
	if stage.PassSSH || len(stage.Secrets) > 0 {
		d.Syntax = experimentalSyntax
	}

	aliases := sortedKeys(stage.ExternalImages)
	for _, alias := range aliases {
		d.Add(domain.From{Image: stage.ExternalImages[alias], Alias: alias})
	}
	d.Add(domain.From{Image: from})
	for _, alias := range aliases {
		// External image content lands under /external/<alias> so
		// commands can pick what they need from it.
		d.Add(domain.CopyFrom{Image: alias, Src: "/", Dst: path.Join("/external", alias), Chown: stage.Chown})
	}

	for _, in := range inputs {
		d.Add(domain.Copy{Src: in, Dst: containerPath(in), Chown: stage.Chown})
	}
	d.Add(domain.Workdir{Dir: containerPath(targetPath)})
	for _, key := range sortedKeys(stage.Environment) {
		d.Add(domain.Env{Key: key, Value: stage.Environment[key]})
	}
	for _, cmd := range stage.Commands {
		d.Add(domain.Run{Command: cmd})
	}
	if stage.Entrypoint != "" {
		d.Add(domain.Cmd{Command: stage.Entrypoint})
	}
	return d
}

// layeredDescriptor assembles a deploy descriptor that starts from the
// stage's own base image and carries the named build outputs over from
// the previously built image.
func layeredDescriptor(prior string, inputs []string, stage *domain.Stage, targetPath string, outputs []string) *domain.Descriptor {
	d := stageDescriptor(stage.Image, inputs, stage, targetPath)

	carried := make([]domain.Instruction, 0, len(outputs))
	for _, out := range outputs {
		loc := containerPath(targetPath, out)
		carried = append(carried, domain.CopyFrom{Image: prior, Src: loc, Dst: loc, Chown: stage.Chown})
	}
	if len(carried) == 0 {
		return d
	}

	// Carried outputs go right after the base image, before inputs.
	ins := make([]domain.Instruction, 0, len(d.Instructions)+len(carried))
	for _, in := range d.Instructions {
		ins = append(ins, in)
		if f, ok := in.(domain.From); ok && f.Alias == "" {
			ins = append(ins, carried...)
			carried = nil
		}
	}
	d.Instructions = ins
	return d
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
