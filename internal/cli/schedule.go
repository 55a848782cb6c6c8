package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/wire"
)

// ScheduleCmd returns the schedule command group.
func ScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage testing-schedule entries",
	}

	cmd.AddCommand(scheduleCreateCmd())
	cmd.AddCommand(scheduleListCmd())
	cmd.AddCommand(scheduleArchiveCmd())
	return cmd
}

func scheduleCreateCmd() *cobra.Command {
	var req primary.CreateScheduleEntryRequest

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Schedule a control test",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			return wire.ScheduleAdapter().Create(NewContext(), req)
		},
	}
	cmd.Flags().StringVar(&req.ScheduledFor, "on", "", "scheduled day (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&req.ControlRef, "control", "", "control reference")
	cmd.MarkFlagRequired("on")
	return cmd
}

func scheduleListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedule entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ScheduleAdapter().List(NewContext(), status)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status: active or archived")
	return cmd
}

func scheduleArchiveCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "archive [entry-id]",
		Short: "Archive a schedule entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ScheduleAdapter().Archive(NewContext(), args[0], reason)
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "archive reason")
	return cmd
}
