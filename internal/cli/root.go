// Package cli provides CLI commands for the remedy application.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/adapters/clock"
	"github.com/example/remedy/internal/config"
	"github.com/example/remedy/internal/ctxutil"
	"github.com/example/remedy/internal/db"
	"github.com/example/remedy/internal/logging"
	"github.com/example/remedy/internal/version"
	"github.com/example/remedy/internal/wire"
)

// globalActorID stores the --as value for the current CLI invocation.
var globalActorID string

var logCloser io.Closer

// NewContext creates a context.Background() with the current actor ID embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() context.Context {
	ctx := context.Background()
	if globalActorID != "" {
		return ctxutil.WithActorID(ctx, globalActorID)
	}
	return ctx
}

// RootCmd builds the remedy command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "remedy",
		Short:   "Remedy - change governance for remediation actions",
		Version: version.String(),
		Long: `Remedy tracks remediation actions raised from compliance reports and risk
entries. Changes to governed fields go through a proposal ledger: requesters
propose, reviewers approve or reject, and every decision is kept.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}

	root.PersistentFlags().String("as", "", "act as this user (overrides the configured actor)")
	root.PersistentFlags().String("db", "", "path to the SQLite database")
	root.PersistentFlags().String("at", "", "evaluate dates as of this day (YYYY-MM-DD)")

	root.AddCommand(InitCmd())
	root.AddCommand(WhoAmICmd())
	root.AddCommand(ActionCmd())
	root.AddCommand(ChangeCmd())
	root.AddCommand(BulkCmd())
	root.AddCommand(ScheduleCmd())
	root.AddCommand(LogCmd())
	root.AddCommand(DevCmd())
	return root
}

// setup loads configuration and hands it to the wiring layer before any
// service is built.
func setup(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if cfg.DBPath != "" {
		db.SetPath(cfg.DBPath)
	}
	if as, _ := cmd.Flags().GetString("as"); as != "" {
		globalActorID = strings.ToLower(strings.TrimSpace(as))
	}
	if at, _ := cmd.Flags().GetString("at"); at != "" {
		when, err := parseAt(at)
		if err != nil {
			return err
		}
		wire.SetClock(clock.Fixed{At: when})
	}

	logger, closer := logging.New(cfg.Log)
	logCloser = closer
	wire.Configure(cfg, logger)
	return nil
}

// parseAt reads a --at day. The clock is pinned to noon UTC so the day
// boundary is never ambiguous.
func parseAt(s string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: expected YYYY-MM-DD", s)
	}
	return day.Add(12 * time.Hour), nil
}

// WhoAmICmd returns the whoami command.
func WhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user and their role",
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := wire.IdentityService().WhoAmI(NewContext())
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s)\n", who.ActorID, who.Role)
			return nil
		},
	}
}

// splitIDs accepts ids as separate arguments, comma-separated lists, or both.
func splitIDs(args []string) []string {
	var ids []string
	for _, arg := range args {
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// nowOr returns the --at instant when one was given, otherwise the current time.
func nowOr(at string) time.Time {
	if at != "" {
		if when, err := parseAt(at); err == nil {
			return when
		}
	}
	return time.Now().UTC()
}
