package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"go.brick.build/brick/internal/core/domain"
)

func (c *CLI) newStageCmds() []*cobra.Command {
	return []*cobra.Command{
		c.newStageCmd(domain.StagePrepare, "Build the dependency image for a target"),
		c.newStageCmd(domain.StageBuild, "Build a target and extract its outputs"),
		c.newStageCmd(domain.StageTest, "Run a target's checks on its built image"),
		c.newStageCmd(domain.StageDeploy, "Assemble and optionally push a target's shippable image"),
		c.newStageCmd(domain.StageDevelop, "Start an interactive container with the target's sources mounted"),
	}
}

func (c *CLI) newStageCmd(stage domain.StageName, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(stage) + " [dir]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.options(cmd)
			if stage == domain.StageDevelop && opts.Recursive {
				return zerr.New("develop is interactive and cannot run recursively")
			}
			return c.app.Stage(cmd.Context(), stage, argDir(args), opts)
		},
	}
}

// argDir returns the directory argument, defaulting to the working
// directory.
func argDir(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}
