package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of a submitted search",
	Long:  "elastic-blast status --results <uri> [--wait] [--exit-code]",
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

		wait, _ := cmd.Flags().GetBool("wait")
		report, err := driver.Status(cmd.Context(), resultsURI, wait)
		if err != nil {
			return err
		}

		fmt.Println(lifecycle.FormatCounts(report))

		if exitCode, _ := cmd.Flags().GetBool("exit-code"); exitCode {
			exitProcess(report.ExitCode())
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("wait", false, "poll until the search reaches a terminal state")
	statusCmd.Flags().Bool("exit-code", false, "exit with SUCCESS/FAILURE/UNKNOWN's mapped code instead of 0")
}
