package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/pluginpub/pluginpub/internal/logger"
	"github.com/pluginpub/pluginpub/internal/output"
	"github.com/pluginpub/pluginpub/internal/repository"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [run-id]",
		Short: "Show the tasks of a publish run",
		Long: `Show the tasks of a publish run, the latest one by default.

Use it after a failed run to see which commits, tags and packages were
already created before the failure. Nothing is rolled back automatically.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			gitRepo, err := repository.NewGitRepository(dir, logger.New(opts.verbose))
			if err != nil {
				return err
			}
			gitDir, err := gitRepo.GitDir(cmd.Context())
			if err != nil {
				return err
			}
			stateRepo := repository.NewJSONStateRepository(afero.NewOsFs(), filepath.Join(gitDir, repository.StateDirName))
			state, err := loadRunState(cmd.Context(), stateRepo, args)
			if errors.Is(err, repository.ErrNoRunState) && len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No publish run recorded.")
				return nil
			}
			if err != nil {
				return err
			}
			printRunState(cmd.OutOrStdout(), state, output.SelectSymbols(output.DetectTerminalCapabilities()))
			return nil
		},
	}
}

func loadRunState(ctx context.Context, repo repository.StateRepository, args []string) (*domain.RunState, error) {
	if len(args) == 1 {
		return repo.Load(ctx, args[0])
	}
	return repo.LoadLatest(ctx)
}

func printRunState(out io.Writer, state *domain.RunState, symbols output.Symbols) {
	fmt.Fprintf(out, "Run %s: %s\n", state.RunID, state.Status)
	version := state.Version
	if state.PreviousVersion != "" {
		version = state.PreviousVersion + " -> " + version
	}
	fmt.Fprintf(out, "Version: %s\n", version)
	fmt.Fprintf(out, "Started: %s\n\n", state.StartedAt.Local().Format(time.DateTime))
	for _, task := range state.Tasks {
		mark := " "
		switch task.Status {
		case domain.TaskStatusCompleted:
			mark = symbols.Success
		case domain.TaskStatusFailed:
			mark = symbols.Failure
		case domain.TaskStatusSkipped:
			mark = symbols.Skipped
		case domain.TaskStatusRunning:
			mark = symbols.Pointer
		}
		line := fmt.Sprintf("%s%s %s", strings.Repeat("  ", task.Depth), mark, task.Title)
		if task.SkipReason != "" {
			line += " [" + task.SkipReason + "]"
		}
		fmt.Fprintln(out, line)
	}
	if state.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", state.Error)
	}
}
