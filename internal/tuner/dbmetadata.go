package tuner

import (
	"context"

	"github.com/alphauslabs/elastic-blast-go/internal/config"
	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
	"github.com/alphauslabs/elastic-blast-go/internal/filehelper"
)

// dbMetaSidecarSuffix is appended to a database's base name to find its
// SeqData sidecar, colocated with the database archive itself.
const dbMetaSidecarSuffix = ".json"

// dbSourceRoots maps a database source to the root URI hosting NCBI's
// published BLAST databases and their metadata sidecars. NCBI's own FTP
// mirror is read-only HTTP and has no Store implementation yet; AWS and
// GCP sources cover the default case, since db-source defaults to
// whichever provider the search already runs on.
var dbSourceRoots = map[config.DBSource]string{
	config.DBSourceAWS: "s3://ncbi-blast-databases",
	config.DBSourceGCP: "gs://blast-db",
}

// dbMetaFile is the on-disk shape of a database's metadata sidecar, as
// published alongside every NCBI BLAST database archive.
type dbMetaFile struct {
	NumberOfLetters int64  `json:"number-of-letters"`
	DBType          string `json:"dbtype"`
	BytesToCache    int64  `json:"bytes-to-cache"`
}

// LoadDBMetadata resolves db's SeqData by reading its metadata sidecar
// from source's root, including the bytes-to-cache figure every tuning
// decision downstream depends on. program fixes the expected molecule
// type; the sidecar's own dbtype is not consulted further since the
// program choice is authoritative for which strand BLAST will search.
func LoadDBMetadata(ctx context.Context, db string, program string, source config.DBSource) (SeqData, error) {
	root, ok := dbSourceRoots[source]
	if !ok {
		return SeqData{}, elberrors.Input("database source %q has no metadata lookup implemented", source)
	}
	store, err := filehelper.Open(ctx, root)
	if err != nil {
		return SeqData{}, err
	}
	defer store.Close()

	key := db + dbMetaSidecarSuffix
	var meta dbMetaFile
	if err := filehelper.ReadJSON(ctx, store, key, &meta); err != nil {
		return SeqData{}, elberrors.Dependency("reading database metadata for %s: %v", db, err)
	}

	return SeqData{Length: meta.NumberOfLetters, MolType: dbMolType(program), BytesToCache: meta.BytesToCache}, nil
}
