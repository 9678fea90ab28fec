package filehelper

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/alphauslabs/elastic-blast-go/internal/elblog"
)

// Staging is a local staging area that batches writes before an atomic
// upload to a remote Store. A caller opens files through Staging instead
// of directly against the destination Store; the actual network upload
// only happens once, in CopyToBucket, so a failed batch never leaves a
// partial object at the destination.
type Staging struct {
	dir  string
	dest Store
	log  elblog.Logger

	mu    sync.Mutex
	files []string // keys relative to dest, staged under dir
}

// NewStaging creates a Staging area backed by a fresh temp directory and
// targeting dest for the eventual upload.
func NewStaging(dest Store, log elblog.Logger) (*Staging, error) {
	dir, err := os.MkdirTemp("", "elastic-blast-stage-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Staging{dir: dir, dest: dest, log: log}, nil
}

// OpenWrite returns a local file under the staging directory for key.
// The file is tracked for upload by a subsequent CopyToBucket call.
func (s *Staging) OpenWrite(key string) (io.WriteCloser, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("staging %s: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", key, err)
	}
	s.mu.Lock()
	s.files = append(s.files, key)
	s.mu.Unlock()
	return f, nil
}

// maxConcurrentUploads bounds the fan-out in CopyToBucket.
const maxConcurrentUploads = 8

// CopyToBucket uploads every staged file to dest, concurrently up to
// maxConcurrentUploads at a time. If dryRun is set, the upload is skipped
// and the staging directory is simply removed. Staged files are removed
// from local disk on return regardless of outcome.
func (s *Staging) CopyToBucket(ctx context.Context, dryRun bool) error {
	defer os.RemoveAll(s.dir)

	s.mu.Lock()
	files := append([]string(nil), s.files...)
	s.mu.Unlock()

	if dryRun {
		s.log.Info("dry run, skipping upload", "files", len(files))
		return nil
	}

	sem := make(chan struct{}, maxConcurrentUploads)
	errs := make(chan error, len(files))
	var wg sync.WaitGroup

	for _, key := range files {
		key := key
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.copyOne(ctx, key); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return err // first error; any others are dropped
	}
	return nil
}

func (s *Staging) copyOne(ctx context.Context, key string) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopening staged file %s: %w", key, err)
	}
	defer src.Close()

	dst, err := s.dest.OpenWrite(ctx, key)
	if err != nil {
		return fmt.Errorf("opening destination for %s: %w", key, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing upload of %s: %w", key, err)
	}
	s.log.Debug("uploaded staged file", "key", key)
	return nil
}
