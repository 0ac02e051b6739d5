package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/pkg/migrator"
)

var (
	migrateDryRun bool
	migrateForce  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [type...]",
	Short: "Create the tables of the schema",
	Long: `Create the tables and views of every type, or of the given types and their
container and part closure. Statements use IF NOT EXISTS, and a run is
skipped when the same statements were already applied.`,
	Example: `  # Create tables
  docstore migrate --db 'root:secret@tcp(localhost:3306)/app'

  # Preview the statements without applying them
  docstore migrate --dry-run

  # Re-apply even if the schema is unchanged
  docstore migrate --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun := resolveBool(migrateDryRun, cfg.Migrate.DryRun)
		ctx := context.Background()

		opts := migrator.Options{Force: migrateForce}
		if dryRun {
			opts.DryRun = os.Stdout
			s, err := offlineStore()
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(os.Stderr, "-- Dry-run mode: SQL will be output but not applied")
				fmt.Fprintln(os.Stderr, "")
			}
			_, err = s.Migrate(ctx, opts, args...)
			return err
		}

		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		if !quiet {
			fmt.Println("Creating tables...")
		}
		skipped, err := s.Migrate(ctx, opts, args...)
		if err != nil {
			return cli.GeneralError("migration failed", err)
		}
		if !quiet {
			if skipped {
				fmt.Println("Schema unchanged, migration skipped.")
				fmt.Println("Use --force to re-apply.")
			} else {
				fmt.Println("Tables created successfully.")
			}
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [type...]",
	Short: "Show which planned tables exist",
	Example: `  # Check status
  docstore status --db 'root:secret@tcp(localhost:3306)/app'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, pool, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		st, err := s.Status(ctx, args...)
		if err != nil {
			return cli.GeneralError("getting status", err)
		}

		for _, t := range st.Tables {
			mark := "present"
			if !t.Exists {
				mark = "missing"
			}
			fmt.Printf("%-8s %-11s %s (%s)\n", mark, t.Table.Kind, t.Table.Name, t.Type)
		}

		if st.Last != nil {
			fmt.Printf("\nLast migration: %s... (codegen %s, %d relations)\n",
				st.Last.DDLChecksum[:min(16, len(st.Last.DDLChecksum))], st.Last.CodegenVersion, len(st.Last.Tables))
		} else {
			fmt.Println("\nNo migration recorded.")
		}
		if missing := st.Missing(); len(missing) > 0 {
			fmt.Printf("\n%d relations missing. Run 'docstore migrate' to create them.\n", len(missing))
		}
		return nil
	},
}

func init() {
	f := migrateCmd.Flags()
	f.BoolVar(&migrateDryRun, "dry-run", false, "output statements without applying")
	f.BoolVar(&migrateForce, "force", false, "apply even if the schema is unchanged")
}
