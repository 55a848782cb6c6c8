package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/wire"
)

// ChangeCmd returns the change command group.
func ChangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "change",
		Short: "Propose, review and inspect changes to actions",
		Long: `Work with the change ledger. Proposals leave the action untouched until a
reviewer approves them; rejected proposals stay in the history.`,
	}

	cmd.AddCommand(changeProposeCmd())
	cmd.AddCommand(changeSubmitCmd())
	cmd.AddCommand(changeNoteCmd())
	cmd.AddCommand(changeResolveCmd("approve", "APPROVED"))
	cmd.AddCommand(changeResolveCmd("reject", "REJECTED"))
	cmd.AddCommand(changeHistoryCmd())
	cmd.AddCommand(changePendingCmd())
	cmd.AddCommand(changeDriftCmd())
	cmd.AddCommand(changeOriginalCmd())
	return cmd
}

func proposeFlags(cmd *cobra.Command, req *primary.ProposeChangeRequest) {
	cmd.Flags().StringVarP(&req.Reason, "reason", "r", "", "why the change is needed")
	cmd.Flags().StringVar(&req.EvidenceURL, "evidence", "", "evidence URL")
	cmd.Flags().StringVar(&req.EvidenceName, "evidence-name", "", "evidence display name")
}

func changeProposeCmd() *cobra.Command {
	var req primary.ProposeChangeRequest

	cmd := &cobra.Command{
		Use:   "propose [action-id] [field] [value]",
		Short: "Propose a change for review",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ActionID, req.Field, req.NewValue = args[0], args[1], args[2]
			return wire.ChangeAdapter().Propose(NewContext(), req)
		},
	}
	proposeFlags(cmd, &req)
	return cmd
}

func changeSubmitCmd() *cobra.Command {
	var req primary.ProposeChangeRequest

	cmd := &cobra.Command{
		Use:   "submit [action-id] [field] [value]",
		Short: "Apply a change directly or propose it, depending on your role",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ActionID, req.Field, req.NewValue = args[0], args[1], args[2]
			return wire.ChangeAdapter().Submit(NewContext(), req)
		},
	}
	proposeFlags(cmd, &req)
	return cmd
}

func changeNoteCmd() *cobra.Command {
	var req primary.ProgressNoteRequest

	cmd := &cobra.Command{
		Use:   "note [action-id] [text]",
		Short: "Add a progress note to an action's history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ActionID, req.Text = args[0], args[1]
			return wire.ChangeAdapter().Note(NewContext(), req)
		},
	}
	cmd.Flags().StringVar(&req.EvidenceURL, "evidence", "", "evidence URL")
	cmd.Flags().StringVar(&req.EvidenceName, "evidence-name", "", "evidence display name")
	return cmd
}

func changeResolveCmd(use, decision string) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   use + " [change-id]",
		Short: fmt.Sprintf("Mark a pending change %s", decision),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ChangeAdapter().Resolve(NewContext(), args[0], decision, note)
		},
	}
	cmd.Flags().StringVarP(&note, "note", "n", "", "review note")
	return cmd
}

func changeHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [action-id]",
		Short: "Show an action's change history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ChangeAdapter().History(NewContext(), args[0])
		},
	}
}

func changePendingCmd() *cobra.Command {
	var filters primary.ChangeFilters

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List changes awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ChangeAdapter().Pending(NewContext(), filters)
		},
	}
	cmd.Flags().StringVar(&filters.ActionID, "action", "", "filter by action")
	cmd.Flags().StringVar(&filters.ProposedBy, "by", "", "filter by proposer")
	cmd.Flags().StringVar(&filters.Field, "field", "", "filter by field")
	return cmd
}

func changeDriftCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drift [action-id]",
		Short: "Show how many days the due date has moved through approved changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := wire.ChangeService().CumulativeDrift(NewContext(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %+d days\n", args[0], days)
			return nil
		},
	}
}

func changeOriginalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "original [action-id] [field]",
		Short: "Show a field's value before its first approved change",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := wire.ChangeService().OriginalValue(NewContext(), args[0], args[1])
			if err != nil {
				return err
			}
			if value == "" {
				value = "-"
			}
			fmt.Printf("%s %s: %s\n", args[0], args[1], value)
			return nil
		},
	}
}
