package config

// Manifest represents the structure of a per-target BUILD.yaml file.
type Manifest struct {
	Name  string             `yaml:"name"`
	Steps map[string]StepDTO `yaml:"steps"`
}

// StepDTO represents one stage definition in the manifest.
type StepDTO struct {
	Image          string               `yaml:"image"`
	Inputs         []string             `yaml:"inputs"`
	Commands       []string             `yaml:"commands"`
	Outputs        []string             `yaml:"outputs"`
	Entrypoint     string               `yaml:"entrypoint"`
	Environment    map[string]string    `yaml:"environment"`
	Ports          []int                `yaml:"ports"`
	Command        string               `yaml:"command"`
	Tag            string               `yaml:"tag"`
	PushImage      bool                 `yaml:"push_image"`
	PassSSH        bool                 `yaml:"pass_ssh"`
	Secrets        map[string]SecretDTO `yaml:"secrets"`
	Chown          string               `yaml:"chown"`
	ExternalImages map[string]string    `yaml:"external_images"`
}

// SecretDTO references a host secret directory and its mount target.
type SecretDTO struct {
	Src    string `yaml:"src"`
	Target string `yaml:"target"`
}
