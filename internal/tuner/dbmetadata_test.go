package tuner

import (
	"context"
	"testing"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
)

func TestLoadDBMetadata_RejectsSourceWithNoLookup(t *testing.T) {
	_, err := LoadDBMetadata(context.Background(), "nt", "blastn", config.DBSourceNCBI)
	if err == nil {
		t.Fatal("LoadDBMetadata with NCBI source = nil error, want error")
	}
}

func TestQueryMolType(t *testing.T) {
	cases := []struct {
		program string
		want    MolType
	}{
		{"blastn", MolTypeNucleotide},
		{"blastp", MolTypeProtein},
		{"blastx", MolTypeNucleotide},
		{"tblastn", MolTypeProtein},
	}
	for _, c := range cases {
		if got := QueryMolType(c.program); got != c.want {
			t.Errorf("QueryMolType(%q) = %v, want %v", c.program, got, c.want)
		}
	}
}
