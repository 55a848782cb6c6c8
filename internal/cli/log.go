package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/wire"
)

// LogCmd returns the log command group.
func LogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View the audit trail",
		Long:  "View and prune the audit trail of every write to actions, changes and schedule entries",
	}

	cmd.AddCommand(logShowCmd())
	cmd.AddCommand(logPruneCmd())
	return cmd
}

func logShowCmd() *cobra.Command {
	var filters primary.LogFilters

	cmd := &cobra.Command{
		Use:   "show [entity-id]",
		Short: "Show recent audit entries, optionally for one entity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				filters.EntityID = args[0]
			}
			if filters.Limit <= 0 {
				filters.Limit = 50
			}

			entries, err := wire.LogService().ListLogs(NewContext(), filters)
			if err != nil {
				return fmt.Errorf("failed to fetch logs: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No log entries found.")
				return nil
			}
			printLogEntries(entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&filters.ActorID, "actor", "", "filter by actor")
	cmd.Flags().StringVar(&filters.EntityType, "type", "", "filter by entity type (action, change, schedule)")
	cmd.Flags().StringVar(&filters.Action, "op", "", "filter by operation (create, update, delete)")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 50, "maximum entries")
	return cmd
}

func logPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete audit entries older than N days",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := wire.LogService().PruneLogs(NewContext(), days)
			if err != nil {
				return fmt.Errorf("failed to prune logs: %w", err)
			}
			fmt.Printf("✓ Pruned %d log entries older than %d days\n", count, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "older-than", 30, "age in days")
	return cmd
}

func printLogEntries(entries []*primary.LogEntry) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tOP\tENTITY\tFIELD\tCHANGE")
	for _, e := range entries {
		actor := e.ActorID
		if actor == "" {
			actor = "-"
		}
		change := ""
		if e.FieldName != "" {
			change = fmt.Sprintf("%q → %q", e.OldValue, e.NewValue)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), actor, e.Action, e.EntityType, e.EntityID, e.FieldName, change)
	}
	w.Flush()
}
