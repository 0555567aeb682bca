package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List every buildable target in the workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := c.app.List(argDir(args), c.options(cmd))
			if err != nil {
				return err
			}
			for _, target := range targets {
				fmt.Fprintln(cmd.OutOrStdout(), target)
			}
			return nil
		},
	}
}
