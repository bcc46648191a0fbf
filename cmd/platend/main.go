// Command platend runs the platen daemon: the drop-folder monitor loop, the
// retention sweeper, and the IPC control socket the platen CLI talks to.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"platen/internal/config"
	"platen/internal/daemonrun"
)

func newDaemonCommand() *cobra.Command {
	var socketFlag string
	var configFlag string
	var logLevel string

	cmd := &cobra.Command{
		Use:           "platend",
		Short:         "Platen daemon process",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				SocketPath: strings.TrimSpace(socketFlag),
				LogLevel:   strings.TrimSpace(logLevel),
			})
		},
	}

	cmd.Flags().StringVar(&socketFlag, "socket", "", "Path to the control socket (defaults to <log dir>/platen.sock)")
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	return cmd
}

func main() {
	cmd := newDaemonCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
