package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"towlot/internal/daemon"
	"towlot/internal/logging"
	"towlot/internal/store"
)

func newCycleCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run one automation cycle and report what happened",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := daemon.New(cfg, st, logging.NewNop())
			if err != nil {
				return err
			}

			summary, err := d.RunCycleNow(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Notices sent:       %d\n", summary.NoticesSent)
			fmt.Fprintf(out, "Status updates:     %d\n", summary.StatusUpdates)
			fmt.Fprintf(out, "Alerts generated:   %d\n", summary.AlertsGenerated)
			fmt.Fprintf(out, "Documents created:  %d\n", summary.DocumentsCreated)
			fmt.Fprintf(out, "Hearings scheduled: %d\n", summary.HearingsScheduled)
			if summary.Errors > 0 {
				fmt.Fprintf(out, "Errors:             %d\n", summary.Errors)
			}
			return nil
		},
	}
}
