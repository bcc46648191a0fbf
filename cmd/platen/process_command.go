package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"platen/internal/config"
	"platen/internal/history"
	"platen/internal/ipc"
	"platen/internal/logging"
	"platen/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <archive>",
		Short: "Run the pipeline once for a single archive",
		Long: "Process runs one archive through the full pipeline without the daemon.\n" +
			"It refuses to run while the daemon is reachable; drop archives into the\n" +
			"inbox instead when the monitor loop is active.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if client, dialErr := ipc.Dial(ctx.socketPath()); dialErr == nil {
				client.Close()
				return fmt.Errorf("daemon is running; drop the archive into %s instead", cfg.Paths.InboxDir)
			}

			target, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve archive path: %w", err)
			}
			if _, err := os.Stat(target); err != nil {
				return fmt.Errorf("inspect archive %q: %w", target, err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: "console",
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ledger, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer ledger.Close()

			mgr := workflow.NewManager(cfg, logger, workflow.WithHistory(ledger))
			result := mgr.ProcessArchive(cmd.Context(), target)

			stdout := cmd.OutOrStdout()
			switch {
			case result.Completed:
				fmt.Fprintf(stdout, "Processed %s -> %s\n", result.Identifier, result.OutputPath)
				return nil
			case result.Aborted:
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				return fmt.Errorf("processing of %s was interrupted", result.Identifier)
			default:
				return fmt.Errorf("processing %s failed at %s after %d attempts: %s",
					result.Identifier, result.FailedStage, len(result.Attempts), result.Err)
			}
		},
	}
}
