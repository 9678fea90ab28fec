// Command elastic-blast submits, monitors, and tears down cloud-hosted
// BLAST searches on AWS or GCP. See SPEC_FULL.md for the full command
// reference; `elastic-blast --help` is the authoritative one at runtime.
package main

import (
	// Register the AWS and GCP cloudbackend.Backend constructors.
	_ "github.com/alphauslabs/elastic-blast-go/internal/cloudbackend/aws"
	_ "github.com/alphauslabs/elastic-blast-go/internal/cloudbackend/gcp"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitWithCode(err)
	}
}
