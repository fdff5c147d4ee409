package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"towlot/internal/lifecycle"
	"towlot/internal/store"
)

var titleCaser = cases.Title(language.English)

func newVehicleCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Manage impounded vehicles",
	}
	cmd.AddCommand(newVehicleListCommand(ctx))
	cmd.AddCommand(newVehicleShowCommand(ctx))
	cmd.AddCommand(newVehicleAddCommand(ctx))
	cmd.AddCommand(newVehicleAdvanceCommand(ctx))
	return cmd
}

func newVehicleListCommand(cctx *commandContext) *cobra.Command {
	var stageFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles, optionally filtered by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				var vehicles []*store.Vehicle
				var err error
				if strings.TrimSpace(stageFlag) == "" {
					vehicles, err = ws.store.List(ctx)
				} else {
					stage, ok := lifecycle.ParseStage(stageFlag)
					if !ok {
						return fmt.Errorf("unknown stage %q (known: %s)", stageFlag, stageNames())
					}
					vehicles, err = ws.store.List(ctx, stage)
				}
				if err != nil {
					return err
				}
				if len(vehicles) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No vehicles found")
					return nil
				}

				rows := make([][]string, 0, len(vehicles))
				for _, v := range vehicles {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.CallNumber,
						v.Stage.Label(),
						strings.TrimSpace(v.Make + " " + v.Model),
						v.Plate,
						v.IntakeAt.Format("2006-01-02"),
						yesNo(v.Archived),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"ID", "Call #", "Stage", "Vehicle", "Plate", "Intake", "Archived"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "Filter by lifecycle stage")
	return cmd
}

func newVehicleShowCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|call-number>",
		Short: "Show one vehicle with its audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				vehicle, err := resolveVehicle(ctx, ws.store, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Vehicle %s (id %d)\n", vehicle.CallNumber, vehicle.ID)
				fmt.Fprintf(out, "  Stage:        %s\n", vehicle.Stage.Label())
				fmt.Fprintf(out, "  Vehicle:      %s\n", strings.TrimSpace(vehicle.Make+" "+vehicle.Model))
				fmt.Fprintf(out, "  Plate:        %s\n", vehicle.Plate)
				fmt.Fprintf(out, "  Jurisdiction: %s\n", titleCaser.String(vehicle.Jurisdiction))
				fmt.Fprintf(out, "  Intake:       %s\n", vehicle.IntakeAt.Format(time.RFC3339))
				printOptionalTime(out, "Notice sent", vehicle.NoticeSentAt)
				printOptionalTime(out, "Response due", vehicle.ResponseDeadline)
				printOptionalTime(out, "Auction date", vehicle.AuctionDate)
				printOptionalTime(out, "Ad run date", vehicle.AdRunDate)
				printOptionalTime(out, "Scrap eligible", vehicle.ScrapEligibleAt)
				printOptionalTime(out, "Pickup", vehicle.PickupScheduledAt)
				printOptionalTime(out, "Hearing", vehicle.HearingDate)
				if vehicle.AuctionNoticeDoc != "" {
					fmt.Fprintf(out, "  Auction form:  %s\n", vehicle.AuctionNoticeDoc)
				}
				if vehicle.DispositionKind != "" {
					fmt.Fprintf(out, "  Disposition:  %s (%s)\n", titleCaser.String(string(vehicle.DispositionKind)), vehicle.DispositionReason)
				}
				fmt.Fprintf(out, "  Archived:     %s\n", yesNo(vehicle.Archived))

				records, err := ws.store.TransitionsForVehicle(ctx, vehicle.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\nAudit trail:")
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					exited := "open"
					if record.ExitedAt != nil {
						exited = record.ExitedAt.Format("2006-01-02 15:04")
					}
					rows = append(rows, []string{
						record.FromStage.Label(),
						record.ToStage.Label(),
						record.EnteredAt.Format("2006-01-02 15:04"),
						exited,
						record.Actor,
						record.Notes,
					})
				}
				fmt.Fprintln(out, renderTable(out,
					[]string{"From", "To", "Entered", "Exited", "Actor", "Notes"},
					rows, nil))
				return nil
			})
		},
	}
}

func newVehicleAddCommand(cctx *commandContext) *cobra.Command {
	var (
		jurisdiction string
		makeName     string
		model        string
		plate        string
	)
	cmd := &cobra.Command{
		Use:   "add <call-number>",
		Short: "Register a newly impounded vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				vehicle, err := ws.store.NewVehicle(ctx, &store.Vehicle{
					CallNumber:   args[0],
					Jurisdiction: jurisdiction,
					Make:         makeName,
					Model:        model,
					Plate:        plate,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered vehicle %s (id %d) in stage %s\n",
					vehicle.CallNumber, vehicle.ID, vehicle.Stage.Label())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jurisdiction, "jurisdiction", "", "Impounding jurisdiction")
	cmd.Flags().StringVar(&makeName, "make", "", "Vehicle make")
	cmd.Flags().StringVar(&model, "model", "", "Vehicle model")
	cmd.Flags().StringVar(&plate, "plate", "", "License plate")
	return cmd
}

func newVehicleAdvanceCommand(cctx *commandContext) *cobra.Command {
	var (
		notes string
		actor string
	)
	cmd := &cobra.Command{
		Use:   "advance <id|call-number> <stage>",
		Short: "Advance a vehicle to a new lifecycle stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cctx.withWorkspace(cmd.Context(), func(ctx context.Context, ws *workspace) error {
				vehicle, err := resolveVehicle(ctx, ws.store, args[0])
				if err != nil {
					return err
				}
				stage, ok := lifecycle.ParseStage(args[1])
				if !ok {
					return fmt.Errorf("unknown stage %q (known: %s)", args[1], stageNames())
				}
				updated, err := ws.engine.AdvanceStage(ctx, vehicle.ID, stage, notes, actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Vehicle %s advanced to %s\n",
					updated.CallNumber, updated.Stage.Label())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Transition notes")
	cmd.Flags().StringVar(&actor, "actor", "operator", "Acting operator identifier")
	return cmd
}

func resolveVehicle(ctx context.Context, st *store.Store, ref string) (*store.Vehicle, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		vehicle, err := st.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if vehicle != nil {
			return vehicle, nil
		}
	}
	vehicle, err := st.GetByCallNumber(ctx, ref)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, fmt.Errorf("vehicle %q not found", ref)
	}
	return vehicle, nil
}

func stageNames() string {
	stages := lifecycle.AllStages()
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = string(stage)
	}
	return strings.Join(names, ", ")
}

func printOptionalTime(out interface{ Write([]byte) (int, error) }, label string, value *time.Time) {
	if value == nil {
		return
	}
	fmt.Fprintf(out, "  %-13s %s\n", label+":", value.Format("2006-01-02 15:04"))
}
