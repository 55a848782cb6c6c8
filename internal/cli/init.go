package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/remedy/internal/config"
	"github.com/example/remedy/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var actor string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the remedy config and database",
		Long: `Write .remedy/config.yaml in the current directory and create the
database with the current schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			path := config.Path(cwd)
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Printf("Config already exists at %s (use --force to overwrite)\n", path)
			} else {
				cfg := config.Default()
				cfg.Actor = actor
				if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
					cfg.DBPath = dbPath
				}
				if err := config.Save(cwd, cfg); err != nil {
					return err
				}
				fmt.Printf("✓ Wrote %s\n", path)
			}

			if _, err := db.GetDB(); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			dbPath, err := db.GetDBPath()
			if err != nil {
				return err
			}
			fmt.Printf("✓ Database ready at %s\n", dbPath)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  add users and roles under 'users:' in the config")
			fmt.Println("  remedy action create \"Rotate shared credentials\" --due 2025-01-31")
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "default acting user")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
