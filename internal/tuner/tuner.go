// Package tuner picks batch length, per-job resource limits, and a
// cloud machine type for a BLAST search, given the program, database,
// and query shape. A single evaluation function applies strict-first
// rule ordering, with the tier thresholds kept as named constants
// instead of magic numbers.
package tuner

import (
	"fmt"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// MTMode is the BLAST multi-threading mode.
type MTMode int

const (
	MTModeUnspecified MTMode = iota
	MTModeByQueries
	MTModeByDatabase
)

func (m MTMode) String() string {
	switch m {
	case MTModeByDatabase:
		return "-mt_mode 1"
	default:
		return "-mt_mode 0"
	}
}

// mtByDatabaseCapable lists programs that support MT_BY_DATABASE; the
// remaining supported programs (tblastx, rpsblast, rpstblastn, psiblast)
// only ever run MT_BY_QUERIES.
var mtByDatabaseCapable = map[string]bool{
	"blastn": true, "blastp": true, "blastx": true, "tblastn": true,
}

// dbCacheRatioThreshold is the minimum ratio of database bytes-to-cache
// to total query letters above which MT_BY_DATABASE is preferred over
// MT_BY_QUERIES, for programs that support it.
const dbCacheRatioThreshold = 2.0

// Defaults for per-job core counts in MT_BY_QUERIES mode.
const (
	minCoresByQueries     = 1
	defaultCoresByQueries = 4
	smallQueryThreshold   = 5000 // letters; below this, fall back to minCoresByQueries
)

// Core-count tiers for MT_BY_DATABASE: a job's database scan, not the
// query, drives parallelism there, so larger databases get proportionally
// more cores per job rather than a flat default.
const (
	mediumDBBytesToCache = 8 << 30  // 8 GiB
	largeDBBytesToCache  = 24 << 30 // 24 GiB
	coresForMediumDB     = 8
	coresForLargeDB      = 16
)

// Input is everything Tune needs to produce a Plan.
type Input struct {
	Program      string
	Options      string // user-supplied BLAST option string; "-mt_mode" here overrides policy
	DB           SeqData
	Query        SeqData
	Provider     config.Provider
	WithOptimal  bool // AWS-only; rejected on GCP
	ConstantMemLimitGB int // default 20
	DBMemLimitFactor   *float64 // nil ⇒ provider default (0.0 AWS, 1.1 GCP)
	Region       string
}

// Plan is the Tuner's deterministic output.
type Plan struct {
	MTMode      MTMode
	NumCPUs     int
	BatchLength int
	MemLimit    string // e.g. "42G"
	MachineType string
}

// Tune computes a Plan from in, applying each decision in order: mt_mode,
// then num_cpus, then batch_length, then mem_limit, then machine_type.
// Later steps depend on earlier ones; the same inputs always yield the
// same Plan.
func Tune(in Input) (*Plan, error) {
	if in.Provider != config.ProviderAWS && in.Provider != config.ProviderGCP {
		return nil, elberrors.Input("unknown cloud provider %q", in.Provider)
	}
	if in.WithOptimal && in.Provider != config.ProviderAWS {
		return nil, elberrors.Input(`the "optimal" instance type is only allowed for AWS`)
	}

	mtMode := resolveMTMode(in)
	numCPUs := numCPUsFor(in.Program, mtMode, in.DB, in.Query)
	batchLength := batchLengthFor(in.Program, mtMode, numCPUs)

	factor := dbMemLimitFactor(in.Provider, in.DBMemLimitFactor)
	constLimitGB := in.ConstantMemLimitGB
	if constLimitGB == 0 {
		constLimitGB = 20
	}
	memLimit := memLimitFor(in.DB, factor, constLimitGB)

	var machineType string
	if in.WithOptimal {
		machineType = "optimal"
	} else {
		var err error
		machineType, err = machineForShape(in.Provider, in.Region, numCPUs, memLimit)
		if err != nil {
			return nil, err
		}
	}

	return &Plan{
		MTMode:      mtMode,
		NumCPUs:     numCPUs,
		BatchLength: batchLength,
		MemLimit:    memLimit,
		MachineType: machineType,
	}, nil
}

// resolveMTMode honors an explicit "-mt_mode" in the option string;
// otherwise applies the database-size-relative-to-query policy for
// programs that support MT_BY_DATABASE.
func resolveMTMode(in Input) MTMode {
	switch {
	case containsOption(in.Options, "-mt_mode 1"):
		return MTModeByDatabase
	case containsOption(in.Options, "-mt_mode 0"):
		return MTModeByQueries
	}

	if !mtByDatabaseCapable[in.Program] {
		return MTModeByQueries
	}
	if in.Query.Length <= 0 {
		return MTModeByQueries
	}
	ratio := float64(in.DB.BytesToCache) / float64(in.Query.Length)
	if ratio >= dbCacheRatioThreshold {
		return MTModeByDatabase
	}
	return MTModeByQueries
}

func containsOption(options, flag string) bool {
	for i := 0; i+len(flag) <= len(options); i++ {
		if options[i:i+len(flag)] == flag {
			return true
		}
	}
	return false
}

// numCPUsFor derives the per-job core count. MT_BY_DATABASE jobs scale
// with the database's cached size, since a bigger database means more
// work per core regardless of query size; MT_BY_QUERIES jobs fall back
// to the minimum when the query is small enough that more cores would go
// unused.
func numCPUsFor(program string, mode MTMode, db SeqData, query SeqData) int {
	if mode == MTModeByDatabase {
		return coresForDatabase(db)
	}
	if query.Length > 0 && query.Length < smallQueryThreshold {
		return minCoresByQueries
	}
	return defaultCoresByQueries
}

// coresForDatabase buckets db's cached size into a core-count tier.
func coresForDatabase(db SeqData) int {
	bytes := db.BytesToCache
	switch {
	case bytes >= largeDBBytesToCache:
		return coresForLargeDB
	case bytes >= mediumDBBytesToCache:
		return coresForMediumDB
	default:
		return defaultCoresByQueries
	}
}

// batchLengthFor scales with cores for MT_BY_DATABASE (each job processes
// proportionally more query per core); MT_BY_QUERIES uses a fixed
// program default, since query batches are already the unit of
// parallelism across jobs rather than within one.
func batchLengthFor(program string, mode MTMode, numCPUs int) int {
	const queryModeDefault = 10000
	const perCoreByDatabase = 2500
	if mode == MTModeByDatabase {
		return perCoreByDatabase * numCPUs
	}
	return queryModeDefault
}

// dbMemLimitFactor resolves the effective db_mem_limit_factor: an
// explicit override always wins; otherwise AWS defaults to 0.0 (ignore
// database size, use the constant limit) and GCP to 1.1 (scale with
// database size, since GCP's per-job pricing favors tighter packing).
func dbMemLimitFactor(provider config.Provider, override *float64) float64 {
	if override != nil {
		return *override
	}
	if provider == config.ProviderAWS {
		return 0.0
	}
	return 1.1
}

// memLimitFor returns max(constant_limit, db_bytes_to_cache * factor) as
// a memory literal.
func memLimitFor(db SeqData, factor float64, constLimitGB int) string {
	constBytes := float64(int64(constLimitGB) << 30)
	scaled := float64(db.BytesToCache) * factor
	bytes := constBytes
	if scaled > bytes {
		bytes = scaled
	}
	gb := bytes / (1 << 30)
	if gb != float64(int64(gb)) {
		return fmt.Sprintf("%.1fG", gb)
	}
	return fmt.Sprintf("%dG", int64(gb))
}
