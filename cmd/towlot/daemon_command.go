package main

import (
	"github.com/spf13/cobra"

	"towlot/internal/daemon"
)

func newDaemonCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the workflow daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemon.Run(cmd.Context(), cfg)
		},
	}
}
