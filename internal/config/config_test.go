package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempINI(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "elastic-blast.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing temp ini: %v", err)
	}
	return path
}

const validINI = `
[cloud-provider]
provider = aws
region = us-east-1

[blast]
program = blastp
db = swissprot
db-source = ncbi
batch-len = 10000

[cluster]
name = my-search
num-nodes = 3
results = s3://my-bucket/results

[app]
queries = s3://my-bucket/queries.fa
label = test-run
`

func TestLoadFromINI(t *testing.T) {
	path := writeTempINI(t, validINI)
	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}
	if cfg.Cloud.Provider != ProviderAWS {
		t.Errorf("Provider = %q, want %q", cfg.Cloud.Provider, ProviderAWS)
	}
	if cfg.Blast.Program != "blastp" {
		t.Errorf("Program = %q, want blastp", cfg.Blast.Program)
	}
	if cfg.Blast.BatchLength != 10000 {
		t.Errorf("BatchLength = %d, want 10000", cfg.Blast.BatchLength)
	}
	if cfg.Cluster.NumNodes != 3 {
		t.Errorf("NumNodes = %d, want 3", cfg.Cluster.NumNodes)
	}
	if len(cfg.App.Queries) != 1 || cfg.App.Queries[0] != "s3://my-bucket/queries.fa" {
		t.Errorf("Queries = %v, want one element", cfg.App.Queries)
	}
}

func TestLoadFromINI_DefaultsBatchLength(t *testing.T) {
	path := writeTempINI(t, `
[cloud-provider]
provider = gcp
region = us-east4

[blast]
program = blastn
db = nt
db-source = gcp

[cluster]
results = gs://my-bucket/results

[app]
queries = gs://my-bucket/q.fa
`)
	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}
	if cfg.Blast.BatchLength != defaultBatchLength {
		t.Errorf("BatchLength = %d, want default %d", cfg.Blast.BatchLength, defaultBatchLength)
	}
	if cfg.Cluster.NumNodes != 1 {
		t.Errorf("NumNodes = %d, want default 1", cfg.Cluster.NumNodes)
	}
}

func TestFreezeThawRoundTrip(t *testing.T) {
	path := writeTempINI(t, validINI)
	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}

	frozenPath := filepath.Join(t.TempDir(), "elastic-blast-config.json")
	if err := Freeze(cfg, frozenPath); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	thawed, err := Thaw(frozenPath)
	if err != nil {
		t.Fatalf("Thaw: %v", err)
	}
	if !reflect.DeepEqual(*thawed, *cfg) {
		t.Errorf("thaw(freeze(c)) = %+v, want %+v", *thawed, *cfg)
	}
}

func TestValidate_Submit(t *testing.T) {
	path := writeTempINI(t, validINI)
	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}
	if err := cfg.Validate(CommandSubmit); err != nil {
		t.Errorf("Validate(SUBMIT) = %v, want nil", err)
	}
}

func TestValidate_SubmitRequiresQueries(t *testing.T) {
	path := writeTempINI(t, `
[cloud-provider]
provider = aws
region = us-east-1

[blast]
program = blastn
db = nt
db-source = ncbi

[cluster]
results = s3://my-bucket/results
`)
	cfg, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}
	if err := cfg.Validate(CommandSubmit); err == nil {
		t.Error("Validate(SUBMIT) with no queries = nil, want error")
	}
}

func TestValidate_ResultsURIRequiredForAllCommands(t *testing.T) {
	cfg := &Config{Cloud: CloudConfig{Provider: ProviderAWS}}
	for _, cmd := range []Command{CommandSubmit, CommandStatus, CommandDelete} {
		if err := cfg.Validate(cmd); err == nil {
			t.Errorf("Validate(%s) with empty results URI = nil, want error", cmd)
		}
	}
}

func TestValidate_RejectsMalformedResultsURI(t *testing.T) {
	cfg := &Config{
		Cloud:   CloudConfig{Provider: ProviderAWS},
		Cluster: ClusterConfig{Results: "/local/path"},
	}
	if err := cfg.Validate(CommandStatus); err == nil {
		t.Error("Validate with malformed results URI = nil, want error")
	}
}

func TestValidate_RejectsUnknownProgram(t *testing.T) {
	cfg := &Config{
		Cloud:   CloudConfig{Provider: ProviderGCP, GCPProject: "p"},
		Blast:   BlastConfig{Program: "not-a-program", DB: "nt", BatchLength: 1000},
		Cluster: ClusterConfig{NumNodes: 1, Results: "gs://b/r"},
		App:     AppConfig{Queries: []string{"gs://b/q.fa"}},
	}
	if err := cfg.Validate(CommandSubmit); err == nil {
		t.Error("Validate with unknown program = nil, want error")
	}
}

func TestApplyOverride(t *testing.T) {
	base := &Config{
		Blast:   BlastConfig{Program: "blastn", BatchLength: 5000000},
		Cluster: ClusterConfig{NumNodes: 1, Results: "s3://b/r"},
	}
	dryRun := true
	merged := ApplyOverride(base, &Override{BatchLength: 20000, DryRun: &dryRun})

	if merged.Blast.BatchLength != 20000 {
		t.Errorf("BatchLength = %d, want 20000", merged.Blast.BatchLength)
	}
	if merged.Blast.Program != "blastn" {
		t.Errorf("Program = %q, want unchanged blastn", merged.Blast.Program)
	}
	if !merged.Cluster.DryRun {
		t.Error("DryRun = false, want true")
	}
	if base.Blast.BatchLength != 5000000 {
		t.Error("ApplyOverride mutated the base config")
	}
}

func TestApplyOverride_NilIsNoOp(t *testing.T) {
	base := &Config{Blast: BlastConfig{Program: "blastp"}}
	merged := ApplyOverride(base, nil)
	if !reflect.DeepEqual(*merged, *base) {
		t.Errorf("ApplyOverride(base, nil) = %+v, want %+v", *merged, *base)
	}
}
