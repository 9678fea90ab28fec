// Command blast-tuner suggests a batch length, per-job resource limits,
// and a cloud machine type for a BLAST search, and emits them as an INI
// fragment for the `elastic-blast submit` --cfg file; the [app] queries
// and [cluster] results keys are not written and must be added. It is a
// thin wrapper around internal/tuner: a single evaluation, no cloud
// calls of its own beyond the database metadata lookup.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
	"github.com/alphauslabs/elastic-blast-go/internal/tuner"
)

const (
	defaultAWSRegion = "us-east-1"
	defaultGCPRegion = "us-east4"
)

var rootCmd = &cobra.Command{
	Use:   "blast-tuner",
	Short: "Suggest batch length, resource limits, and a machine type for a BLAST search",
	Long:  "blast-tuner --db <name> --program <blastn|...> --total-query-length <n> --csp-target <AWS|GCP>",
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("db", "", "BLAST database to search (required)")
	rootCmd.Flags().String("program", "", "BLAST program to run (required)")
	rootCmd.Flags().Int64("total-query-length", 0, "number of residues or bases across all query sequences (required)")
	rootCmd.Flags().String("csp-target", "AWS", "which cloud service provider to target: AWS|GCP")
	rootCmd.Flags().String("db-source", "", "where the database is hosted: aws|gcp|ncbi (default: csp-target)")
	rootCmd.Flags().String("region", "", "cloud region (default: provider-specific)")
	rootCmd.Flags().String("options", "", "BLAST options to pass through; the computed -mt_mode is appended to them")
	rootCmd.Flags().Float64("db-mem-limit-factor", -1, "factor applied to database bytes-to-cache for the memory limit (default: 0.0 AWS, 1.1 GCP)")
	rootCmd.Flags().Int("constant-mem-limit", 20, "constant memory limit floor for all search jobs, in GB")
	rootCmd.Flags().Bool("with-optimal", false, "use the AWS \"optimal\" instance type")
	rootCmd.Flags().String("out", "-", "write the resulting INI fragment here instead of stdout")
	rootCmd.Flags().String("logfile", "stderr", "log destination, or \"stderr\"")
	rootCmd.Flags().String("loglevel", string(elblog.LevelInfo), "DEBUG|INFO|WARNING|ERROR|CRITICAL")

	rootCmd.MarkFlagRequired("db")
	rootCmd.MarkFlagRequired("program")
	rootCmd.MarkFlagRequired("total-query-length")
}

func run(cmd *cobra.Command, args []string) error {
	db, _ := cmd.Flags().GetString("db")
	program, _ := cmd.Flags().GetString("program")
	totalQueryLength, _ := cmd.Flags().GetInt64("total-query-length")
	cspTarget, _ := cmd.Flags().GetString("csp-target")
	dbSourceFlag, _ := cmd.Flags().GetString("db-source")
	region, _ := cmd.Flags().GetString("region")
	options, _ := cmd.Flags().GetString("options")
	memFactorFlag, _ := cmd.Flags().GetFloat64("db-mem-limit-factor")
	constMemLimit, _ := cmd.Flags().GetInt("constant-mem-limit")
	withOptimal, _ := cmd.Flags().GetBool("with-optimal")
	outPath, _ := cmd.Flags().GetString("out")
	logfile, _ := cmd.Flags().GetString("logfile")
	loglevel, _ := cmd.Flags().GetString("loglevel")

	w, closeFn, err := elblog.OpenLogfile(logfile)
	if err != nil {
		return fmt.Errorf("opening logfile %s: %w", logfile, err)
	}
	defer closeFn()
	log := elblog.New(w, elblog.Level(loglevel))

	provider := config.Provider(strings.ToLower(cspTarget))
	if provider != config.ProviderAWS && provider != config.ProviderGCP {
		return fmt.Errorf("--csp-target must be AWS or GCP, got %q", cspTarget)
	}

	dbSource := config.DBSource(strings.ToLower(dbSourceFlag))
	if dbSource == "" {
		dbSource = config.DBSource(provider)
	}

	if region == "" {
		if provider == config.ProviderAWS {
			region = defaultAWSRegion
		} else {
			region = defaultGCPRegion
		}
	}

	log.Info("loading database metadata", "db", db, "source", dbSource)
	dbData, err := tuner.LoadDBMetadata(cmd.Context(), db, program, dbSource)
	if err != nil {
		return err
	}

	var memFactor *float64
	if memFactorFlag >= 0 {
		memFactor = &memFactorFlag
	}

	plan, err := tuner.Tune(tuner.Input{
		Program:            program,
		Options:            options,
		DB:                 dbData,
		Query:              tuner.SeqData{Length: totalQueryLength, MolType: tuner.QueryMolType(program)},
		Provider:           provider,
		WithOptimal:        withOptimal,
		ConstantMemLimitGB: constMemLimit,
		DBMemLimitFactor:   memFactor,
		Region:             region,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}

	writeINI(out, provider, region, program, db, options, plan)
	return nil
}

// writeINI renders plan as the [cloud-provider]/[blast]/[cluster]
// fragment elastic-blast submit's --cfg file expects these keys under,
// one section per stanza.
func writeINI(out *os.File, provider config.Provider, region, program, db, options string, plan *tuner.Plan) {
	fmt.Fprintln(out, "[cloud-provider]")
	fmt.Fprintf(out, "provider = %s\n", provider)
	if provider == config.ProviderAWS {
		fmt.Fprintf(out, "region = %s\n", region)
	} else {
		fmt.Fprintf(out, "gcp-project =\n")
		fmt.Fprintf(out, "region = %s\n", region)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[blast]")
	fmt.Fprintf(out, "program = %s\n", program)
	fmt.Fprintf(out, "db = %s\n", db)
	fmt.Fprintf(out, "batch-len = %d\n", plan.BatchLength)
	fmt.Fprintf(out, "mem-limit = %s\n", plan.MemLimit)
	combinedOptions := strings.TrimSpace(options + " " + plan.MTMode.String())
	fmt.Fprintf(out, "options = %s\n", combinedOptions)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "[cluster]")
	fmt.Fprintf(out, "num-cpus = %d\n", plan.NumCPUs)
	fmt.Fprintf(out, "machine-type = %s\n", plan.MachineType)
	fmt.Fprintln(out)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "blast-tuner:", err)
		os.Exit(1)
	}
}
