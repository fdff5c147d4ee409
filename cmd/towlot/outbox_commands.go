package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"towlot/internal/store"
)

func newOutboxCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the notification outbox",
	}
	cmd.AddCommand(newOutboxListCommand(ctx))
	cmd.AddCommand(newOutboxStatusCommand(ctx))
	cmd.AddCommand(newOutboxDrainCommand(ctx))
	return cmd
}

func newOutboxListCommand(cctx *commandContext) *cobra.Command {
	var (
		statusFlag string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				status, err := parseNotificationStatus(statusFlag)
				if err != nil {
					return err
				}
				notifications, err := ws.store.ListNotifications(ctx, status, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(notifications) == 0 {
					fmt.Fprintln(out, "Outbox is empty")
					return nil
				}
				rows := make([][]string, 0, len(notifications))
				for _, n := range notifications {
					vehicle := "-"
					if n.VehicleID != nil {
						vehicle = strconv.FormatInt(*n.VehicleID, 10)
					}
					rows = append(rows, []string{
						strconv.FormatInt(n.ID, 10),
						vehicle,
						n.Kind,
						n.Recipient,
						string(n.Status),
						strconv.Itoa(n.RetryCount),
						n.ScheduledAt.Format("2006-01-02 15:04"),
						n.LastError,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Vehicle", "Kind", "Recipient", "Status", "Retries", "Scheduled", "Last Error"},
					rows,
					[]columnAlignment{alignRight, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statusFlag, "status", "pending", "Filter by status (pending, sent, failed)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to show")
	return cmd
}

func newOutboxStatusCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show outbox delivery counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				counts, err := ws.queue.Counts(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Pending: %d\n", counts[store.NotificationPending])
				fmt.Fprintf(out, "Sent:    %d\n", counts[store.NotificationSent])
				fmt.Fprintf(out, "Failed:  %d\n", counts[store.NotificationFailed])
				return nil
			})
		},
	}
}

func newOutboxDrainCommand(cctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Deliver due notifications now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				processed, err := ws.queue.DrainDue(ctx, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d notification(s)\n", processed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum notifications to deliver")
	return cmd
}

func parseNotificationStatus(value string) (store.NotificationStatus, error) {
	switch store.NotificationStatus(value) {
	case store.NotificationPending, store.NotificationSent, store.NotificationFailed:
		return store.NotificationStatus(value), nil
	default:
		return "", fmt.Errorf("unknown notification status %q (known: pending, sent, failed)", value)
	}
}
