package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
)

// janitorCmd runs a single janitor sweep against one results URI. It is
// hidden because operators drive it from a scheduler (cron, a Cloud
// Scheduler job) iterating over the registry's list of in-flight
// searches, not by hand.
var janitorCmd = &cobra.Command{
	Use:    "janitor",
	Short:  "Sweep a search: finalize and delete it if it reached a terminal state",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		resultsURI, err := resultsURIFromFlags(cmd)
		if err != nil {
			return err
		}

		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		dryRun, _ := cmd.Flags().GetBool("dry-run")

		driver := lifecycle.NewDriver(log, nil)
		if err := driver.Sweep(cmd.Context(), resultsURI, dryRun); err != nil {
			return err
		}

		fmt.Printf("swept %s\n", resultsURI)
		return nil
	},
}
