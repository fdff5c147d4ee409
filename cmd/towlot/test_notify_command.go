package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"towlot/internal/services/push"
)

func newTestNotifyCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification to the configured push endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.PushEndpoint == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Push endpoint not configured; nothing to test")
				return nil
			}
			if err := push.NewSender(cfg).Test(cmd.Context()); err != nil {
				return fmt.Errorf("test notification failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification delivered to %s\n", cfg.Notifications.PushEndpoint)
			return nil
		},
	})
	return cmd
}
