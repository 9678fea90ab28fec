package config

// Override holds optional per-field overrides for a Config, as supplied
// by CLI flags on top of a loaded INI file. A zero value for any field
// means "use the config-file value instead".
type Override struct {
	Program     string
	DB          string
	BatchLength int
	MemLimit    string
	NumNodes    int
	MachineType string
	Results     string
	DryRun      *bool
}

// ApplyOverride returns a copy of cfg with any non-zero Override fields
// merged in.
//
// Resolution order (highest to lowest priority):
//  1. Non-zero fields in override
//  2. The loaded config file
func ApplyOverride(cfg *Config, override *Override) *Config {
	merged := *cfg
	if override == nil {
		return &merged
	}

	if override.Program != "" {
		merged.Blast.Program = override.Program
	}
	if override.DB != "" {
		merged.Blast.DB = override.DB
	}
	if override.BatchLength != 0 {
		merged.Blast.BatchLength = override.BatchLength
	}
	if override.MemLimit != "" {
		merged.Blast.MemLimit = override.MemLimit
	}
	if override.NumNodes != 0 {
		merged.Cluster.NumNodes = override.NumNodes
	}
	if override.MachineType != "" {
		merged.Cluster.MachineType = override.MachineType
	}
	if override.Results != "" {
		merged.Cluster.Results = override.Results
	}
	if override.DryRun != nil {
		merged.Cluster.DryRun = *override.DryRun
	}

	return &merged
}
