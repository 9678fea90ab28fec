package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
	"github.com/alphauslabs/elastic-blast-go/internal/lifecycle"
	"github.com/alphauslabs/elastic-blast-go/internal/registry"
)

var rootCmd = &cobra.Command{
	Use:   "elastic-blast",
	Short: "elastic-blast runs BLAST searches on a cloud provider",
	Long: "-------------------------------------------------------------------\n" +
		"                  elastic-blast (AWS/GCP edition)\n" +
		"-------------------------------------------------------------------",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	cobra.EnableCommandSorting = false

	rootCmd.PersistentFlags().String("cfg", "", "path to the elastic-blast INI configuration file")
	rootCmd.PersistentFlags().String("results", "", "results bucket URI (overrides cluster.results in --cfg)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "validate and print what would happen without touching the cloud")
	rootCmd.PersistentFlags().String("logfile", "stderr", "log destination, or \"stderr\"")
	rootCmd.PersistentFlags().String("loglevel", string(elblog.LevelInfo), "DEBUG|INFO|WARNING|ERROR|CRITICAL")

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runSummaryCmd)
	rootCmd.AddCommand(janitorCmd)
}

// newLogger opens --logfile and builds a Logger at --loglevel. The
// returned close func must run before the process exits so a file
// destination gets flushed.
func newLogger(cmd *cobra.Command) (elblog.Logger, func(), error) {
	logfile, _ := cmd.Flags().GetString("logfile")
	level, _ := cmd.Flags().GetString("loglevel")

	w, closeFn, err := elblog.OpenLogfile(logfile)
	if err != nil {
		return nil, nil, fmt.Errorf("opening logfile %s: %w", logfile, err)
	}
	log := elblog.New(w, elblog.Level(level))
	return log, func() { closeFn() }, nil
}

// loadConfig reads --cfg and applies the --results/--dry-run overrides
// every command accepts, since a results URI is frequently known ahead of
// a full config file (e.g. scripting `status`/`delete` against a URI
// captured from a prior `submit`).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("cfg")
	if cfgPath == "" {
		return nil, fmt.Errorf("--cfg is required")
	}
	cfg, err := config.LoadFromINI(cfgPath)
	if err != nil {
		return nil, err
	}

	if results, _ := cmd.Flags().GetString("results"); results != "" {
		cfg.Cluster.Results = results
	}
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		cfg.Cluster.DryRun = true
	}
	return cfg, nil
}

// newDriver wires a lifecycle.Driver from cfg's optional [registry]
// section. A missing database leaves Registry nil; every Driver method
// and registry.Client method tolerates that.
func newDriver(cmd *cobra.Command, log elblog.Logger, cfg *config.Config) (*lifecycle.Driver, func(), error) {
	reg, err := registry.NewClient(cmd.Context(), cfg.Registry.Database)
	if err != nil {
		return nil, nil, err
	}
	return lifecycle.NewDriver(log, reg), func() { reg.Close() }, nil
}

// resultsURIFromFlags resolves the results URI either from --results or
// from a full --cfg load, for the read-only commands (status/delete/
// run-summary) that only need the results locator, not a fresh config.
func resultsURIFromFlags(cmd *cobra.Command) (string, error) {
	if results, _ := cmd.Flags().GetString("results"); results != "" {
		return results, nil
	}
	cfgPath, _ := cmd.Flags().GetString("cfg")
	if cfgPath == "" {
		return "", fmt.Errorf("--results or --cfg is required")
	}
	cfg, err := config.LoadFromINI(cfgPath)
	if err != nil {
		return "", err
	}
	if cfg.Cluster.Results == "" {
		return "", fmt.Errorf("cluster.results is not set in %s", cfgPath)
	}
	return cfg.Cluster.Results, nil
}

func exitWithCode(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "elastic-blast:", err)
	os.Exit(elberrors.ExitCode(err))
}

// exitProcess exits immediately with code, used by `status --exit-code`
// once its report has already been printed.
func exitProcess(code int) {
	os.Exit(code)
}
