// Package config loads and validates per-target build manifests.
package config

import (
	"os"
	"path/filepath"

	"go.brick.build/brick/internal/core/domain"
	"go.brick.build/brick/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

var validStages = map[string]domain.StageName{
	string(domain.StagePrepare): domain.StagePrepare,
	string(domain.StageBuild):   domain.StageBuild,
	string(domain.StageTest):    domain.StageTest,
	string(domain.StageDeploy):  domain.StageDeploy,
	string(domain.StageDevelop): domain.StageDevelop,
}

// Loader reads BUILD.yaml manifests, substituting reserved-prefix
// environment placeholders before parsing.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// HasManifest reports whether the directory carries a manifest file.
func (l *Loader) HasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, domain.ManifestFilename))
	return err == nil && !info.IsDir()
}

// Load reads and validates the manifest of the target at root/target.
func (l *Loader) Load(root, target string) (*domain.Target, error) {
	path := filepath.Join(root, target, domain.ManifestFilename)

	raw, err := os.ReadFile(path) //nolint:gosec // path is derived from the workspace root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "manifest not found"), "target", target)
	}

	expanded, err := expandPlaceholders(raw)
	if err != nil {
		return nil, zerr.With(err, "target", target)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(expanded, &manifest); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "malformed manifest"), "target", target)
	}

	return l.toTarget(target, &manifest)
}

// toTarget validates the manifest and converts it to a domain Target.
func (l *Loader) toTarget(target string, m *Manifest) (*domain.Target, error) {
	if m.Name == "" {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "manifest is missing a name"), "target", target)
	}

	steps := make(map[domain.StageName]*domain.Stage, len(m.Steps))
	for rawName, dto := range m.Steps {
		stageName, ok := validStages[rawName]
		if !ok {
			err := zerr.With(zerr.Wrap(domain.ErrConfig, "unknown stage"), "stage", rawName)
			return nil, zerr.With(err, "target", target)
		}

		if stageName == domain.StagePrepare && dto.Image == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfig, "prepare stage requires an image"), "target", target)
		}
		if len(dto.Outputs) > 0 && stageName != domain.StageBuild {
			err := zerr.With(zerr.Wrap(domain.ErrConfig, "only the build stage may declare outputs"), "stage", rawName)
			return nil, zerr.With(err, "target", target)
		}

		steps[stageName] = toStage(stageName, &dto)
	}

	return domain.NewTarget(target, m.Name, steps), nil
}

func toStage(name domain.StageName, dto *StepDTO) *domain.Stage {
	var secrets map[string]domain.Secret
	if len(dto.Secrets) > 0 {
		secrets = make(map[string]domain.Secret, len(dto.Secrets))
		for id, s := range dto.Secrets {
			secrets[id] = domain.Secret{Src: s.Src, Target: s.Target}
		}
	}

	return &domain.Stage{
		Name:           name,
		Image:          dto.Image,
		Inputs:         dto.Inputs,
		Commands:       dto.Commands,
		Outputs:        dto.Outputs,
		Entrypoint:     dto.Entrypoint,
		Environment:    dto.Environment,
		Ports:          dto.Ports,
		Command:        dto.Command,
		Tag:            dto.Tag,
		PushImage:      dto.PushImage,
		PassSSH:        dto.PassSSH,
		Secrets:        secrets,
		Chown:          dto.Chown,
		ExternalImages: dto.ExternalImages,
	}
}
