package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/cloudbackend"
	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
	"github.com/alphauslabs/elastic-blast-go/internal/registry"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List searches recorded in the registry",
	Long:  "elastic-blast list [--database <spanner-database>]",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()

		database, _ := cmd.Flags().GetString("database")
		if database == "" {
			database = os.Getenv("ELASTIC_BLAST_REGISTRY")
		}
		reg, err := registry.NewClient(cmd.Context(), database)
		if err != nil {
			return err
		}
		defer reg.Close()

		driver := lifecycle.NewDriver(log, reg)

		searches, err := driver.List(cmd.Context(), cloudbackend.Owner())
		if err != nil {
			return err
		}
		if len(searches) == 0 {
			fmt.Println("no searches found.")
			return nil
		}

		fmt.Printf("%-40s  %-20s  %-8s  %-12s  %s\n", "RESULTS", "CLUSTER", "PROVIDER", "STATE", "SUBMITTED")
		fmt.Println(strings.Repeat("─", 100))
		for _, s := range searches {
			fmt.Printf("%-40s  %-20s  %-8s  %-12s  %s\n",
				s.ResultsURI, s.ClusterName, s.Provider, s.State, s.SubmittedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("database", "", "Spanner database (projects/.../databases/...); defaults to $ELASTIC_BLAST_REGISTRY")
}
