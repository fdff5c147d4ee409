package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"towlot/internal/actions"
)

func newPrioritiesCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "priorities",
		Short: "Show today's prioritized work across the lot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				priorities, err := ws.engine.DailyPriorities(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if priorities.Total() == 0 {
					fmt.Fprintln(out, "Nothing outstanding")
					return nil
				}
				printActionBucket(cmd, "Urgent", priorities.Urgent)
				printActionBucket(cmd, "Due today", priorities.DueToday)
				printActionBucket(cmd, "Upcoming", priorities.Upcoming)
				return nil
			})
		},
	}
}

func printActionBucket(cmd *cobra.Command, title string, list []actions.Action) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(list))
	fmt.Fprintln(out, renderTable(out,
		[]string{"Vehicle", "Priority", "Due", "Action", "Auto"},
		actionRows(list),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}))
}

func actionRows(list []actions.Action) [][]string {
	rows := make([][]string, 0, len(list))
	for _, action := range list {
		rows = append(rows, []string{
			strconv.FormatInt(action.VehicleID, 10),
			titleCaser.String(string(action.Priority)),
			action.DueDate.Format("2006-01-02"),
			action.Description,
			yesNo(action.Automated),
		})
	}
	return rows
}
