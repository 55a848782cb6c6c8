package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/wire"
)

// ActionCmd returns the action command group.
func ActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Manage remediation actions",
		Long:  "Create, inspect, edit and close remediation actions",
	}

	cmd.AddCommand(actionCreateCmd())
	cmd.AddCommand(actionListCmd())
	cmd.AddCommand(actionShowCmd())
	cmd.AddCommand(actionEditCmd())
	cmd.AddCommand(actionIssueCmd())
	cmd.AddCommand(actionCloseCmd())
	cmd.AddCommand(actionDeleteCmd())
	return cmd
}

func actionCreateCmd() *cobra.Command {
	var req primary.CreateActionRequest

	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = args[0]
			return wire.ActionAdapter().Create(NewContext(), req)
		},
	}

	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "action description")
	cmd.Flags().StringVar(&req.IssueDescription, "issue", "", "issue description (report-sourced actions)")
	cmd.Flags().StringVar(&req.SectionTitle, "section", "", "report section title")
	cmd.Flags().StringVar(&req.Status, "status", "", "initial status (default OPEN)")
	cmd.Flags().StringVarP(&req.Priority, "priority", "p", "", "priority P1, P2 or P3 (default P2)")
	cmd.Flags().StringVar(&req.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.AssignedTo, "owner", "", "assigned owner")
	cmd.Flags().StringVar(&req.SourceType, "source", "", "source type: report or risk")
	cmd.Flags().StringVar(&req.SourceRef, "source-ref", "", "source report or risk reference")
	return cmd
}

func actionListCmd() *cobra.Command {
	var filters primary.ActionFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions, most urgent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ActionAdapter().List(NewContext(), filters)
		},
	}

	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by effective status (OVERDUE included)")
	cmd.Flags().StringVar(&filters.Urgency, "urgency", "", "filter by urgency: late, soon, normal, none")
	cmd.Flags().StringVar(&filters.AssignedTo, "owner", "", "filter by owner")
	cmd.Flags().StringVarP(&filters.Priority, "priority", "p", "", "filter by priority")
	cmd.Flags().StringVar(&filters.SourceType, "source", "", "filter by source type")
	cmd.Flags().StringVar(&filters.SourceRef, "source-ref", "", "filter by source reference")
	cmd.Flags().BoolVar(&filters.PendingOnly, "pending", false, "only actions awaiting review")
	return cmd
}

func actionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [action-id]",
		Short: "Show an action with its derived state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ActionAdapter().Show(NewContext(), args[0])
			return err
		},
	}
}

func actionEditCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "edit [action-id] [field] [value]",
		Short: "Edit a field directly (reviewers, or the owner for ungoverned fields)",
		Long: `Edit a field without review. Governed fields (title, description, status,
assignedTo, dueDate, sectionTitle) can only be edited directly by reviewers;
requesters use 'remedy change submit' instead. The edit is still recorded in
the change ledger as an approved entry.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ActionAdapter().Edit(NewContext(), primary.EditActionRequest{
				ActionID: args[0],
				Field:    args[1],
				Value:    args[2],
				Reason:   reason,
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "reason recorded with the edit")
	return cmd
}

func actionIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue [action-id] [text]",
		Short: "Set the issue description of a report-sourced action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ActionAdapter().SetIssue(NewContext(), args[0], args[1])
		},
	}
}

func actionCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close [action-id]",
		Short: "Request closure (moves the action to PROPOSED_CLOSED)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ActionAdapter().Close(NewContext(), args[0])
		},
	}
}

func actionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [action-id]",
		Short: "Delete an action and its change history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ActionAdapter().Delete(NewContext(), args[0])
		},
	}
}
