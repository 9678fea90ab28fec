package filehelper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Marker key names under a results URI's metadata/ prefix. Only the
// janitor sweep writes Success/Failure; the status command only reads
// them.
const (
	MetadataPrefix = "metadata/"
	ConfigKey      = MetadataPrefix + "elastic-blast-config.json"
	SuccessKey     = MetadataPrefix + "SUCCESS"
	FailureKey     = MetadataPrefix + "FAILURE"
	JobsKey        = MetadataPrefix + "jobs.json"
)

// WriteMarker writes a zero-byte marker object at key, matching the
// original's "presence, not content, is the signal" marker convention.
// Writing to an already-present marker is not an error (idempotent).
func WriteMarker(ctx context.Context, store Store, key string) error {
	w, err := store.OpenWrite(ctx, key)
	if err != nil {
		return fmt.Errorf("opening marker %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing marker %s: %w", key, err)
	}
	return nil
}

// WriteJSON marshals v and writes it to key.
func WriteJSON(ctx context.Context, store Store, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	w, err := store.OpenWrite(ctx, key)
	if err != nil {
		return fmt.Errorf("opening %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return w.Close()
}

// ReadJSON reads key and unmarshals it into v.
func ReadJSON(ctx context.Context, store Store, key string, v any) error {
	r, err := store.OpenRead(ctx, key)
	if err != nil {
		return fmt.Errorf("opening %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}
