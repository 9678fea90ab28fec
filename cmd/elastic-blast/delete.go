package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
	"github.com/alphauslabs/elastic-blast-go/internal/registry"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Tear down the cloud resources for a submitted search",
	Long:  "elastic-blast delete --results <uri>",
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

		reg, closeReg, err := optionalRegistry(cmd)
		if err != nil {
			return err
		}
		defer closeReg()

		driver := lifecycle.NewDriver(log, reg)
		if err := driver.Delete(cmd.Context(), resultsURI); err != nil {
			return err
		}

		fmt.Printf("deleted cloud resources for %s\n", resultsURI)
		return nil
	},
}

// optionalRegistry builds a registry.Client from --cfg's [registry]
// section when --cfg was given, or returns a nil Client otherwise —
// delete/status only strictly need the results URI, so a bare --results
// invocation shouldn't be forced to supply a full config file just to
// resolve a Spanner database.
func optionalRegistry(cmd *cobra.Command) (*registry.Client, func(), error) {
	cfgPath, _ := cmd.Flags().GetString("cfg")
	if cfgPath == "" {
		return nil, func() {}, nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.NewClient(cmd.Context(), cfg.Registry.Database)
	if err != nil {
		return nil, nil, err
	}
	return reg, func() { reg.Close() }, nil
}
