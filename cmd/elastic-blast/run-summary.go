package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
)

var runSummaryCmd = &cobra.Command{
	Use:   "run-summary",
	Short: "Print a rough cost/usage summary for a search",
	Long:  "elastic-blast run-summary --results <uri>",
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

		driver := lifecycle.NewDriver(log, nil)
		summary, err := driver.RunSummary(cmd.Context(), resultsURI)
		if err != nil {
			return err
		}

		fmt.Println(summary.String())
		return nil
	},
}
