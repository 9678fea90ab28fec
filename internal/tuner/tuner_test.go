package tuner

import (
	"strings"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
)

func TestTune_RejectsUnknownProvider(t *testing.T) {
	_, err := Tune(Input{Program: "blastn", Provider: "azure"})
	if err == nil {
		t.Error("Tune with unknown provider = nil error, want error")
	}
}

func TestTune_WithOptimalRejectedOnGCP(t *testing.T) {
	_, err := Tune(Input{Program: "blastn", Provider: config.ProviderGCP, WithOptimal: true})
	if err == nil {
		t.Error("Tune with --with-optimal on GCP = nil error, want error")
	}
}

func TestTune_WithOptimalOnAWS(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 1_000_000, MolType: MolTypeNucleotide},
		Query:    SeqData{Length: 100_000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
		WithOptimal: true,
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MachineType != "optimal" {
		t.Errorf("MachineType = %q, want optimal", plan.MachineType)
	}
}

func TestTune_MTModeByQueries_SmallDatabase(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 1000, MolType: MolTypeNucleotide, BytesToCache: 250},
		Query:    SeqData{Length: 1_000_000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MTMode != MTModeByQueries {
		t.Errorf("MTMode = %v, want MTModeByQueries", plan.MTMode)
	}
}

func TestTune_MTModeByDatabase_LargeDatabase(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 100_000_000_000, MolType: MolTypeNucleotide, BytesToCache: 25_000_000_000},
		Query:    SeqData{Length: 1000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MTMode != MTModeByDatabase {
		t.Errorf("MTMode = %v, want MTModeByDatabase", plan.MTMode)
	}
}

func TestTune_NumCPUsScalesWithLargeDatabase(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 4_000_000_000, MolType: MolTypeNucleotide, BytesToCache: 40 << 30},
		Query:    SeqData{Length: 1_000_000_000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MTMode != MTModeByDatabase {
		t.Errorf("MTMode = %v, want MTModeByDatabase", plan.MTMode)
	}
	if plan.NumCPUs < 16 {
		t.Errorf("NumCPUs = %d, want >= 16 for a 40 GiB database", plan.NumCPUs)
	}
	if plan.MemLimit != "20G" {
		t.Errorf("MemLimit = %q, want 20G (AWS default factor ignores db size)", plan.MemLimit)
	}
}

func TestTune_ExplicitMTModeOverridesPolicy(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Options:  "-mt_mode 0",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 100_000_000_000, MolType: MolTypeNucleotide, BytesToCache: 25_000_000_000},
		Query:    SeqData{Length: 1000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MTMode != MTModeByQueries {
		t.Errorf("MTMode = %v, want MTModeByQueries (explicit override)", plan.MTMode)
	}
}

func TestTune_ProgramWithoutMTByDatabaseSupport(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "tblastx",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 100_000_000_000, MolType: MolTypeNucleotide, BytesToCache: 25_000_000_000},
		Query:    SeqData{Length: 1000, MolType: MolTypeNucleotide},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MTMode != MTModeByQueries {
		t.Errorf("MTMode = %v, want MTModeByQueries (tblastx never supports by-database)", plan.MTMode)
	}
}

func TestTune_MemLimit_AWSDefaultIgnoresDBSize(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastp",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 1_000_000_000_000, MolType: MolTypeProtein, BytesToCache: 1_000_000_000_000},
		Query:    SeqData{Length: 1000, MolType: MolTypeProtein},
		Region:   "us-east-1",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MemLimit != "20G" {
		t.Errorf("MemLimit = %q, want 20G (AWS default factor 0.0)", plan.MemLimit)
	}
}

func TestTune_MemLimit_GCPScalesWithDatabase(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastp",
		Provider: config.ProviderGCP,
		DB:       SeqData{Length: 100_000_000_000, MolType: MolTypeProtein, BytesToCache: 100_000_000_000},
		Query:    SeqData{Length: 1000, MolType: MolTypeProtein},
		Region:   "us-east4",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if plan.MemLimit == "20G" {
		t.Error("MemLimit = 20G, want scaled-up value (GCP default factor 1.1)")
	}
}

func TestTune_MachineType_PicksFromCatalog(t *testing.T) {
	plan, err := Tune(Input{
		Program:  "blastn",
		Provider: config.ProviderGCP,
		DB:       SeqData{Length: 1000, MolType: MolTypeNucleotide, BytesToCache: 250},
		Query:    SeqData{Length: 1_000_000, MolType: MolTypeNucleotide},
		Region:   "us-east4",
	})
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	if !strings.HasPrefix(plan.MachineType, "n1-") {
		t.Errorf("MachineType = %q, want an n1- family shape", plan.MachineType)
	}
}

func TestTune_Deterministic(t *testing.T) {
	in := Input{
		Program:  "blastx",
		Provider: config.ProviderAWS,
		DB:       SeqData{Length: 5_000_000_000, MolType: MolTypeProtein, BytesToCache: 5_000_000_000},
		Query:    SeqData{Length: 50_000, MolType: MolTypeNucleotide},
		Region:   "us-west-2",
	}
	first, err := Tune(in)
	if err != nil {
		t.Fatalf("Tune: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Tune(in)
		if err != nil {
			t.Fatalf("Tune: %v", err)
		}
		if *again != *first {
			t.Fatalf("Tune(%+v) not deterministic: got %+v, then %+v", in, first, again)
		}
	}
}

func TestMachineForShape_NoFit(t *testing.T) {
	_, err := machineForShape(config.ProviderAWS, "us-east-1", 1000, "4000G")
	if err == nil {
		t.Error("machineForShape with absurd requirements = nil error, want error")
	}
}
