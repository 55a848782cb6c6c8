package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/wire"
)

// BulkCmd returns the bulk command group.
func BulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Apply one operation to many actions or schedule entries",
		Long: `Run a batch operation. Each item is applied independently: failures are
reported per item and never undo items that already succeeded. Interrupting
the batch marks the remaining items as failed.

IDs may be given as separate arguments or comma-separated.`,
	}

	cmd.AddCommand(bulkReassignCmd())
	cmd.AddCommand(bulkCompleteCmd())
	cmd.AddCommand(bulkArchiveCmd())
	return cmd
}

func runBatch(req primary.BatchRequest) error {
	ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt)
	defer stop()

	result, err := wire.BulkAdapter().Run(ctx, req)
	if err != nil {
		return err
	}
	if !result.Succeeded() {
		return fmt.Errorf("%d of %d items failed", result.Failed, result.Total)
	}
	return nil
}

func bulkReassignCmd() *cobra.Command {
	var owner, reason string

	cmd := &cobra.Command{
		Use:   "reassign [action-id...]",
		Short: "Reassign actions to a new owner",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(primary.BatchRequest{
				Operation: "reassign",
				IDs:       splitIDs(args),
				NewOwner:  owner,
				Reason:    reason,
			})
		},
	}
	cmd.Flags().StringVar(&owner, "to", "", "new owner (required)")
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "reason recorded on each change")
	cmd.MarkFlagRequired("to")
	return cmd
}

func bulkCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete [action-id...]",
		Short: "Mark actions COMPLETED",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(primary.BatchRequest{
				Operation: "complete",
				IDs:       splitIDs(args),
			})
		},
	}
}

func bulkArchiveCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "archive [entry-id...]",
		Short: "Archive testing-schedule entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(primary.BatchRequest{
				Operation: "archive",
				IDs:       splitIDs(args),
				Reason:    reason,
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "archive reason")
	return cmd
}
