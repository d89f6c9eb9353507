package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pthm/vantage/internal/cli"
	"github.com/pthm/vantage/internal/debug"
	"github.com/pthm/vantage/internal/doctor"
	"github.com/pthm/vantage/pkg/datasource"
)

var (
	doctorDetails bool
	doctorOffline bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on the model and, when one is configured, the database.

Every table must render a SELECT, every relation must resolve both as a
related set and as a linked set, and every model column must exist.`,
	Example: `  # Check the model and database
  vantage doctor

  # Model only, with rendered statements
  vantage doctor --offline --details`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var ds datasource.DataSource
		if !doctorOffline {
			if _, err := cfg.DSN(); err != nil {
				debug.Debug("skipping database checks", "reason", err)
			} else {
				src, closeDB, err := connect(ctx, cfg)
				if err != nil {
					return err
				}
				defer closeDB()
				ds = src
			}
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint("vantage doctor - Health Check"))

		report, err := doctor.New(cli.AppFs, cfg.Model, ds).Run(ctx)
		if err != nil {
			return cli.GeneralError("running doctor", err)
		}
		report.Print(w, resolveBool(doctorDetails, verbose > 0))

		if report.HasErrors() {
			return cli.ChecksFailedError(report.Errors)
		}
		return nil
	},
}

func init() {
	f := doctorCmd.Flags()
	f.BoolVar(&doctorDetails, "details", false, "show rendered statements and error details")
	f.BoolVar(&doctorOffline, "offline", false, "skip database checks")
}
