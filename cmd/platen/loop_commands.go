package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"platen/internal/ipc"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the monitor loop on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return fmt.Errorf("start monitor loop: %w", err)
				}
				stdout := cmd.OutOrStdout()
				switch {
				case resp != nil && resp.Started:
					fmt.Fprintln(stdout, "Monitor loop started")
				case resp != nil && strings.TrimSpace(resp.Message) != "":
					fmt.Fprintln(stdout, resp.Message)
				default:
					fmt.Fprintln(stdout, "Start request sent")
				}
				return nil
			})
		},
	}
}

func newHaltCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "halt",
		Short: "Stop the monitor loop without terminating the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return fmt.Errorf("stop monitor loop: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp != nil && resp.Stopped {
					fmt.Fprintln(stdout, "Monitor loop stopped")
				} else {
					fmt.Fprintln(stdout, "Stop request sent")
				}
				return nil
			})
		},
	}
}
