package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a BLAST search to the configured cloud provider",
	Long:  "elastic-blast submit --cfg <path> [--results <uri>] [--dry-run]",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		driver, closeDriver, err := newDriver(cmd, log, cfg)
		if err != nil {
			return err
		}
		defer closeDriver()

		if err := driver.Submit(cmd.Context(), cfg); err != nil {
			return err
		}

		fmt.Printf("search submitted to %s\n", cfg.Cluster.Results)
		fmt.Printf("check progress with: elastic-blast status --results %s\n", cfg.Cluster.Results)
		return nil
	},
}
