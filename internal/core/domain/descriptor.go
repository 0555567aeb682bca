package domain

// Descriptor is a structured build descriptor: an ordered sequence of
// typed instructions. It is rendered to Dockerfile text only at the
// image-engine boundary, so pipeline logic and tests never do string
// matching on descriptor text.
type Descriptor struct {
	// Syntax optionally selects a frontend (e.g. experimental BuildKit
	// features for ssh/secret mounts).
	Syntax       string
	Instructions []Instruction
}

// Instruction is one typed Dockerfile instruction.
type Instruction interface {
	isInstruction()
}

// From sets the base image. A non-empty Alias names the stage so later
// instructions can copy out of it.
type From struct {
	Image string
	Alias string
}

// Copy copies a path from the build context into the image.
type Copy struct {
	Src   string
	Dst   string
	Chown string
}

// CopyFrom copies a path from another image into this one.
type CopyFrom struct {
	Image string
	Src   string
	Dst   string
	Chown string
}

// Workdir sets the working directory for subsequent instructions.
type Workdir struct {
	Dir string
}

// Env sets an environment variable in the image.
type Env struct {
	Key   string
	Value string
}

// Run executes a shell command. Mount requirements (ssh, secrets) are
// attached by the engine adapter at render time.
type Run struct {
	Command string
}

// Cmd sets the container's default command.
type Cmd struct {
	Command string
}

func (From) isInstruction()     {}
func (Copy) isInstruction()     {}
func (CopyFrom) isInstruction() {}
func (Workdir) isInstruction()  {}
func (Env) isInstruction()      {}
func (Run) isInstruction()      {}
func (Cmd) isInstruction()      {}

// Add appends instructions in order.
func (d *Descriptor) Add(ins ...Instruction) *Descriptor {
	d.Instructions = append(d.Instructions, ins...)
	return d
}

// RunCount returns the number of Run instructions.
func (d *Descriptor) RunCount() int {
	n := 0
	for _, in := range d.Instructions {
		if _, ok := in.(Run); ok {
			n++
		}
	}
	return n
}

// BaseImage returns the image of the final stage's From instruction,
// skipping aliased helper stages.
func (d *Descriptor) BaseImage() string {
	for _, in := range d.Instructions {
		if f, ok := in.(From); ok && f.Alias == "" {
			return f.Image
		}
	}
	return ""
}
