// Package commands implements the CLI commands for the brick build tool.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"go.brick.build/brick/internal/app"
	"go.brick.build/brick/internal/build"
)

// CLI represents the command line interface for brick.
type CLI struct {
	app        *app.App
	setVerbose func(bool)
	rootCmd    *cobra.Command
}

// New creates a new CLI instance from the initialized components.
func New(components *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "brick",
		Short:         "A container-image build pipeline for monorepos",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().BoolP("recursive", "r", false, "Run for every target below the workspace root")
	rootCmd.PersistentFlags().Bool("skip-previous-steps", false, "Reuse existing images of previous stages instead of re-running them")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Bypass all caches and build fresh")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Additional directory names skipped during target discovery")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	c := &CLI{
		app:        components.App,
		setVerbose: components.SetVerbose,
		rootCmd:    rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && c.setVerbose != nil {
			c.setVerbose(true)
		}
	}

	rootCmd.AddCommand(c.newStageCmds()...)
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newPruneCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

// options collects the persistent flags shared by all commands.
func (c *CLI) options(cmd *cobra.Command) app.RunOptions {
	recursive, _ := cmd.Flags().GetBool("recursive")
	skip, _ := cmd.Flags().GetBool("skip-previous-steps")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	return app.RunOptions{
		Recursive:         recursive,
		SkipPreviousSteps: skip,
		NoCache:           noCache,
		Excludes:          excludes,
	}
}
