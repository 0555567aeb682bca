package commands

import (
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [dir]",
		Short: "Remove a target's stale images, keeping latest and main branch tags",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			return c.app.Prune(cmd.Context(), argDir(args), olderThan, force, c.options(cmd))
		},
	}
	cmd.Flags().Duration("older-than", 30*24*time.Hour, "Only remove images last tagged before this age")
	cmd.Flags().BoolP("force", "f", false, "Force removal of images with multiple references")
	return cmd
}
