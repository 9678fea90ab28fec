// Package config implements the typed, validated configuration record for
// elastic-blast-go: loading from an INI file, freezing to and thawing from
// JSON, and per-command cross-field validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// Command identifies which CLI subcommand is about to use a Config, so
// Validate can apply the right cross-field rules.
type Command string

const (
	CommandSubmit Command = "SUBMIT"
	CommandStatus Command = "STATUS"
	CommandDelete Command = "DELETE"
)

// Provider identifies a supported cloud.
type Provider string

const (
	ProviderAWS Provider = "aws"
	ProviderGCP Provider = "gcp"
)

// DBSource identifies where a BLAST database comes from.
type DBSource string

const (
	DBSourceAWS  DBSource = "aws"
	DBSourceGCP  DBSource = "gcp"
	DBSourceNCBI DBSource = "ncbi"
)

// Config is the complete, validated search configuration. It mirrors the
// four sections of the INI config file and round-trips through JSON as
// the frozen copy pinned to the results bucket at submit time.
type Config struct {
	Cloud    CloudConfig    `json:"cloudProvider"`
	Blast    BlastConfig    `json:"blast"`
	Cluster  ClusterConfig  `json:"cluster"`
	App      AppConfig      `json:"app"`
	Registry RegistryConfig `json:"registry,omitempty"`
}

// CloudConfig is the [cloud-provider] section.
type CloudConfig struct {
	Provider Provider `json:"provider" ini:"provider"`
	Region   string   `json:"region" ini:"region"`
	// Credentials is a locator for the provider's credentials (a named AWS
	// profile, a GCP service-account key path); empty means "use the
	// provider SDK's default chain".
	Credentials string `json:"credentials,omitempty" ini:"credentials"`
	// GCPProject is the GCP project ID compute/storage resources are
	// created in. Unused for AWS.
	GCPProject string `json:"gcpProject,omitempty" ini:"gcp-project"`
}

// BlastConfig is the [blast] section.
type BlastConfig struct {
	Program     string   `json:"program" ini:"program"`
	DB          string   `json:"db" ini:"db"`
	DBSource    DBSource `json:"dbSource" ini:"db-source"`
	BatchLength int      `json:"batchLen" ini:"batch-len"`
	MemLimit    string   `json:"memLimit,omitempty" ini:"mem-limit"`
	Options     string   `json:"options,omitempty" ini:"options"`
}

// ClusterConfig is the [cluster] section.
type ClusterConfig struct {
	Name        string `json:"name" ini:"name"`
	MachineType string `json:"machineType,omitempty" ini:"machine-type"`
	NumNodes    int    `json:"numNodes" ini:"num-nodes"`
	NumCPUs     int    `json:"numCpus,omitempty" ini:"num-cpus"`
	Preemptible bool   `json:"usePreemptible,omitempty" ini:"use-preemptible"`
	Results     string `json:"results" ini:"results"`
	DryRun      bool   `json:"dryRun,omitempty" ini:"dry-run"`
}

// AppConfig carries the query input locator(s) and a human label for the
// run. The INI file keeps these under [app]; they're split into their own
// sub-record since they are neither cloud- nor cluster-specific.
type AppConfig struct {
	Queries []string `json:"queries"`
	Label   string   `json:"label,omitempty"`
}

// RegistryConfig is the optional [registry] section. When Database is
// empty, no SearchRegistry is constructed and the driver relies solely
// on object-storage markers.
type RegistryConfig struct {
	Database string `json:"database,omitempty" ini:"database"`
}

const defaultBatchLength = 5_000_000

// LoadFromINI reads an elastic-blast INI config file (the format the
// tuner companion tool emits) into a Config.
func LoadFromINI(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}

	cp := f.Section("cloud-provider")
	cfg.Cloud.Provider = Provider(strings.ToLower(cp.Key("provider").String()))
	cfg.Cloud.Region = cp.Key("region").String()
	cfg.Cloud.Credentials = cp.Key("credentials").String()
	cfg.Cloud.GCPProject = cp.Key("gcp-project").String()

	bl := f.Section("blast")
	cfg.Blast.Program = strings.ToLower(bl.Key("program").String())
	cfg.Blast.DB = bl.Key("db").String()
	cfg.Blast.DBSource = DBSource(strings.ToLower(bl.Key("db-source").String()))
	if s := bl.Key("batch-len").String(); s != "" {
		if cfg.Blast.BatchLength, err = bl.Key("batch-len").Int(); err != nil {
			return nil, fmt.Errorf("blast.batch-len: %w", err)
		}
	} else {
		cfg.Blast.BatchLength = defaultBatchLength
	}
	cfg.Blast.MemLimit = bl.Key("mem-limit").String()
	cfg.Blast.Options = bl.Key("options").String()

	cl := f.Section("cluster")
	cfg.Cluster.Name = cl.Key("name").String()
	cfg.Cluster.MachineType = cl.Key("machine-type").String()
	if s := cl.Key("num-nodes").String(); s != "" {
		if cfg.Cluster.NumNodes, err = cl.Key("num-nodes").Int(); err != nil {
			return nil, fmt.Errorf("cluster.num-nodes: %w", err)
		}
	} else {
		cfg.Cluster.NumNodes = 1
	}
	cfg.Cluster.NumCPUs, _ = cl.Key("num-cpus").Int()
	if s := cl.Key("use-preemptible").String(); s != "" {
		if cfg.Cluster.Preemptible, err = BoolFromStr(s); err != nil {
			return nil, fmt.Errorf("cluster.use-preemptible: %w", err)
		}
	}
	cfg.Cluster.Results = cl.Key("results").String()
	if s := cl.Key("dry-run").String(); s != "" {
		if cfg.Cluster.DryRun, err = BoolFromStr(s); err != nil {
			return nil, fmt.Errorf("cluster.dry-run: %w", err)
		}
	}

	app := f.Section("app")
	if q := app.Key("queries").String(); q != "" {
		for _, part := range strings.Split(q, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.App.Queries = append(cfg.App.Queries, part)
			}
		}
	}
	cfg.App.Label = app.Key("label").String()

	cfg.Registry.Database = f.Section("registry").Key("database").String()

	return cfg, nil
}

// Freeze serializes cfg as JSON and writes it to path (normally
// <results>/metadata/elastic-blast-config.json), the authoritative copy
// later commands thaw from.
func Freeze(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling frozen config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing frozen config %s: %w", path, err)
	}
	return nil
}

// Thaw reads a previously frozen JSON config back into a Config.
func Thaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frozen config %s: %w", path, err)
	}
	return ThawBytes(data)
}

// ThawBytes parses a previously frozen JSON config held in memory (e.g.
// read back from an object-storage Store rather than a local path).
func ThawBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing frozen config: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field rules relevant to command. Every command
// requires a well-formed results URI; SUBMIT additionally requires at
// least one query locator and a positive batch length and node count.
func (c *Config) Validate(command Command) error {
	if c.Cloud.Provider != ProviderAWS && c.Cloud.Provider != ProviderGCP {
		return fmt.Errorf("cloud-provider.provider must be %q or %q, got %q", ProviderAWS, ProviderGCP, c.Cloud.Provider)
	}
	if c.Cluster.Results == "" {
		return fmt.Errorf("cluster.results is required")
	}
	if !strings.HasPrefix(c.Cluster.Results, "s3://") && !strings.HasPrefix(c.Cluster.Results, "gs://") {
		return fmt.Errorf("cluster.results must be an s3:// or gs:// URI, got %q", c.Cluster.Results)
	}

	switch command {
	case CommandSubmit:
		if c.Cloud.Provider == ProviderGCP && c.Cloud.GCPProject == "" {
			return fmt.Errorf("cloud-provider.gcp-project is required for the gcp provider")
		}
		if len(c.App.Queries) == 0 {
			return fmt.Errorf("app.queries is required for submit")
		}
		if err := PositiveInteger(c.Blast.BatchLength); err != nil {
			return fmt.Errorf("blast.batch-len: %w", err)
		}
		if err := PositiveInteger(c.Cluster.NumNodes); err != nil {
			return fmt.Errorf("cluster.num-nodes: %w", err)
		}
		if c.Blast.Program == "" {
			return fmt.Errorf("blast.program is required for submit")
		}
		if !validPrograms[c.Blast.Program] {
			return fmt.Errorf("blast.program %q is not a recognized BLAST program", c.Blast.Program)
		}
		if c.Blast.DB == "" {
			return fmt.Errorf("blast.db is required for submit")
		}
		if c.Blast.MemLimit != "" {
			if _, err := MemoryStr(c.Blast.MemLimit); err != nil {
				return fmt.Errorf("blast.mem-limit: %w", err)
			}
		}
	case CommandStatus, CommandDelete:
		// results URI check above is sufficient; these commands thaw
		// the rest of the config rather than re-validating it.
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

var validPrograms = map[string]bool{
	"blastn": true, "blastp": true, "blastx": true,
	"tblastn": true, "tblastx": true,
	"rpsblast": true, "rpstblastn": true, "psiblast": true,
}
