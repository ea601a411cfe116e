package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/orchestrator"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	anyBranch   bool
	skipCleanup bool
	yolo        bool
	preid       string
	verbose     bool
}

// NewRootCmd builds the pluginpub command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pluginpub [" + strings.Join(domain.BumpKeywords, "|") + "|<version>]",
		Short: "Publish a plugin package",
		Long: `pluginpub publishes a plugin package in one go:

- checks the git branch, working tree and remote history
- reinstalls dependencies and runs the tests
- bumps the version in plugin.xml and commits it
- runs npm version and npm publish, then pushes commits and tags
- prepends a changelog section and pushes it

The version defaults to patch.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) > 0 {
				input = args[0]
			}
			return runPublish(cmd, opts, input)
		},
	}
	cmd.Flags().BoolVar(&opts.anyBranch, "any-branch", false, "Allow publishing from any branch")
	cmd.Flags().BoolVar(&opts.skipCleanup, "skip-cleanup", false, "Skip cleanup of node_modules")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Skip cleanup and testing")
	cmd.Flags().StringVar(&opts.preid, "preid", "", "Pre-release identifier for pre* versions")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatusCmd(opts))
	return cmd
}

func runPublish(cmd *cobra.Command, opts *rootOptions, input string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	c, err := newContainer(cmd.Context(), dir, opts.verbose, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer c.close()
	pkg, err := c.publishOrchestrator().Execute(cmd.Context(), orchestrator.PublishConfig{
		Input:       input,
		PreID:       opts.preid,
		AnyBranch:   opts.anyBranch,
		SkipCleanup: opts.skipCleanup,
		Yolo:        opts.yolo,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n %s %s published\n", pkg.Name, pkg.Version)
	return nil
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// ErrorMessage returns the text shown to the user for err. A failed task is
// reported by its own message; the task title was already printed.
func ErrorMessage(err error) string {
	var taskErr *orchestrator.TaskError
	if errors.As(err, &taskErr) {
		return taskErr.Err.Error()
	}
	return err.Error()
}
