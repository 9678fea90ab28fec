package tuner

// MolType is a sequence molecule type: nucleotide or protein.
type MolType int

const (
	MolTypeUnspecified MolType = iota
	MolTypeNucleotide
	MolTypeProtein
)

// SeqData describes a database or query sequence collection: its
// molecule type, a size in natural units (bases for nucleotide, residues
// for protein), and — for a database — its working-set size in bytes.
// BytesToCache is only meaningful for a database's SeqData: it comes
// straight from the database's own metadata sidecar (see
// dbmetadata.go's LoadDBMetadata), never derived from Length, since the
// actual on-disk index size depends on BLAST's own database format and
// isn't a fixed ratio of residue/base count.
type SeqData struct {
	Length       int64
	MolType      MolType
	BytesToCache int64
}

// programMolTypes reports the molecule types BLAST programs operate on.
// A program fixes both molecule types; the table has one entry per
// supported program rather than a derivation, since the mapping isn't
// expressible as a simple rule (blastx and tblastn each cross molecule
// types between query and database).
var programMolTypes = map[string]struct{ query, db MolType }{
	"blastn":     {MolTypeNucleotide, MolTypeNucleotide},
	"blastp":     {MolTypeProtein, MolTypeProtein},
	"blastx":     {MolTypeNucleotide, MolTypeProtein},
	"tblastn":    {MolTypeProtein, MolTypeNucleotide},
	"tblastx":    {MolTypeNucleotide, MolTypeNucleotide},
	"rpsblast":   {MolTypeProtein, MolTypeProtein},
	"rpstblastn": {MolTypeNucleotide, MolTypeProtein},
	"psiblast":   {MolTypeProtein, MolTypeProtein},
}

// QueryMolType reports the molecule type BLAST expects in query input for
// program, exported for the tuner companion tool, which must classify a
// query's residues/bases before it has a Plan to put them in.
func QueryMolType(program string) MolType { return programMolTypes[program].query }

func dbMolType(program string) MolType { return programMolTypes[program].db }
