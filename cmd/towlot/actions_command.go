package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"towlot/internal/actions"
)

func newActionsCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "actions <id|call-number>",
		Short: "Show the outstanding actions for one vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				vehicle, err := resolveVehicle(ctx, ws.store, args[0])
				if err != nil {
					return err
				}
				list, err := ws.engine.NextActions(ctx, vehicle.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintf(out, "No outstanding actions for %s\n", vehicle.CallNumber)
					return nil
				}
				fmt.Fprintf(out, "Actions for %s (%s):\n", vehicle.CallNumber, vehicle.Stage.Label())
				fmt.Fprintln(out, renderTable(out,
					[]string{"Priority", "Due", "Action", "Auto"},
					actionRowsWithoutVehicle(list),
					nil))
				return nil
			})
		},
	}
}

func actionRowsWithoutVehicle(list []actions.Action) [][]string {
	rows := make([][]string, 0, len(list))
	for _, action := range list {
		rows = append(rows, []string{
			titleCaser.String(string(action.Priority)),
			action.DueDate.Format("2006-01-02"),
			action.Description,
			yesNo(action.Automated),
		})
	}
	return rows
}
