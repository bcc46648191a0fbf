package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"platen/internal/daemonctl"
	"platen/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the platen daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonctl.ResolveDaemonBinary()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the platen daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.ShutdownAcknowledged {
				fmt.Fprintln(stdout, "Shutdown request sent")
			} else {
				fmt.Fprintln(stdout, "Shutting down daemon...")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the platen daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonctl.ResolveDaemonBinary()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, stage, and history status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonStatusLines(statusResp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Stages", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range stageHealthLines(statusResp.StageHealth, colorize) {
				fmt.Fprintln(stdout, line)
			}

			if item := statusResp.LastItem; item != nil {
				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Last Item", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, line := range lastItemLines(item, colorize) {
					fmt.Fprintln(stdout, line)
				}
			}

			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.History == nil {
				fmt.Fprintln(stdout, "History unavailable")
				return nil
			}
			rows := [][]string{
				{"Completed", strconv.Itoa(statusResp.History.Completed)},
				{"Failed", strconv.Itoa(statusResp.History.Failed)},
				{"Total", strconv.Itoa(statusResp.History.Total)},
			}
			table := renderTable([]string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
			fmt.Fprint(stdout, table)
			fmt.Fprintln(stdout)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonStatusLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 3)

	runningKind := statusWarn
	runningMessage := yesNo(resp.Running)
	if resp.Running {
		runningKind = statusOK
		if resp.PID > 0 {
			runningMessage = fmt.Sprintf("yes (pid %d)", resp.PID)
		}
	}
	lines = append(lines, renderStatusLine("Running", runningKind, runningMessage, colorize))

	if phase := strings.TrimSpace(resp.Phase); phase != "" {
		lines = append(lines, renderStatusLine("Phase", statusInfo, phase, colorize))
	}
	if lastErr := strings.TrimSpace(resp.LastError); lastErr != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, lastErr, colorize))
	}
	return lines
}

func stageHealthLines(health []ipc.StageHealth, colorize bool) []string {
	if len(health) == 0 {
		return []string{renderStatusLine("Stages", statusWarn, "no stage health reported", colorize)}
	}
	lines := make([]string, 0, len(health))
	for _, st := range health {
		kind := statusOK
		message := st.Detail
		if message == "" {
			message = "ready"
		}
		if !st.Ready {
			kind = statusError
			if st.Detail == "" {
				message = "not ready"
			}
		}
		lines = append(lines, renderStatusLine(st.Name, kind, message, colorize))
	}
	return lines
}

func lastItemLines(item *ipc.ItemSummary, colorize bool) []string {
	lines := make([]string, 0, 4)
	lines = append(lines, renderStatusLine("Identifier", statusInfo, item.Identifier, colorize))

	switch {
	case item.Completed:
		message := "completed"
		if item.Attempts > 1 {
			message = fmt.Sprintf("completed after %d attempts", item.Attempts)
		}
		lines = append(lines, renderStatusLine("Outcome", statusOK, message, colorize))
	case item.Aborted:
		lines = append(lines, renderStatusLine("Outcome", statusWarn, "interrupted by shutdown", colorize))
	default:
		message := "failed"
		if item.FailedStage != "" {
			message = fmt.Sprintf("failed at %s", item.FailedStage)
		}
		if item.Error != "" {
			message += ": " + item.Error
		}
		lines = append(lines, renderStatusLine("Outcome", statusError, message, colorize))
	}

	if item.OutputPath != "" {
		lines = append(lines, renderStatusLine("Output", statusInfo, item.OutputPath, colorize))
	}
	if item.FinishedAt != "" {
		lines = append(lines, renderStatusLine("Finished", statusInfo, formatTimestamp(item.FinishedAt), colorize))
	}
	return lines
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if configPath := ctx.configPath(); configPath != "" {
		opts.ConfigPath = configPath
	}
	return opts
}

func formatTimestamp(value string) string {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return parsed.Local().Format("2006-01-02 15:04:05")
}
