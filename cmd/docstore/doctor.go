package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pthm/docstore/internal/cli"
	"github.com/pthm/docstore/internal/doctor"
)

var doctorVerbose bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long:  `Check the schema file, the planned tables, the recorded migration and orphaned part rows.`,
	Example: `  # Run health checks
  docstore doctor

  # Show details of every check
  docstore doctor --details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verboseFlag := resolveBool(doctorVerbose, cfg.Doctor.Verbose, verbose > 0)
		ctx := context.Background()

		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = pool.Close() }()

		if !quiet {
			fmt.Println("docstore doctor - Health Check")
		}

		d := doctor.New(pool.DB(), schemaPath(), storeOptions()...)
		report, err := d.Run(ctx)
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}

		report.Print(os.Stdout, verboseFlag)

		if report.HasErrors() {
			return cli.GeneralError("health checks failed", nil)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorVerbose, "details", false, "show detailed output")
}
