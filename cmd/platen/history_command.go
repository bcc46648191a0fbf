package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"platen/internal/history"
	"platen/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent item outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return fmt.Errorf("fetch history: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp == nil || len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "No items recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(resp.Records))
				for _, rec := range resp.Records {
					detail := rec.ErrorDetail
					if rec.Outcome == history.OutcomeCompleted {
						detail = rec.OutputPath
					}
					rows = append(rows, []string{
						rec.Identifier,
						rec.DateToken,
						strconv.Itoa(rec.Attempts),
						rec.Outcome,
						detail,
						formatTimestamp(rec.FinishedAt),
					})
				}

				table := renderTable(
					[]string{"Identifier", "Date", "Attempts", "Outcome", "Detail", "Finished"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(stdout, table)
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of items to show")
	return cmd
}
