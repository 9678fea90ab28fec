// Package filehelper provides the object-storage abstraction used to read
// query input, write query batches, and read/write metadata markers
// across s3://, gs://, and local-path locations. https:// locations are
// not supported.
package filehelper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// Store is the object-storage contract every cloud backend and component
// uses instead of talking to a provider SDK directly. Implementations are
// backed by gocloud.dev/blob buckets (s3://, gs://, local directories);
// there is no https:// implementation.
type Store interface {
	// OpenRead opens key for streaming reads, transparently decompressing
	// gzip/tar content sniffed from the stream's leading bytes.
	OpenRead(ctx context.Context, key string) (io.ReadCloser, error)
	// OpenWrite opens key for streaming writes.
	OpenWrite(ctx context.Context, key string) (io.WriteCloser, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any resources held by the Store.
	Close() error
}

// bucketStore implements Store over a single gocloud.dev/blob.Bucket
// rooted at a URI prefix such as "s3://my-bucket/results" or
// "gs://my-bucket/results".
type bucketStore struct {
	bucket *blob.Bucket
	prefix string // key prefix under the bucket root, e.g. "results/"
}

// Open resolves uri's scheme (s3, gs, or a local path) and returns a Store
// rooted at it. Every key passed to the returned Store's methods is
// relative to uri.
func Open(ctx context.Context, uri string) (Store, error) {
	scheme, bucketName, prefix, err := splitURI(uri)
	if err != nil {
		return nil, elberrors.Input("%v", err)
	}

	if scheme == "file" {
		bkt, err := fileblob.OpenBucket(bucketName, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, elberrors.Dependency("opening local directory %s: %v", bucketName, err)
		}
		return &bucketStore{bucket: bkt, prefix: prefix}, nil
	}

	rootURL := scheme + "://" + bucketName
	bkt, err := blob.OpenBucket(ctx, rootURL)
	if err != nil {
		return nil, elberrors.Dependency("opening bucket %s: %v", rootURL, err)
	}

	return &bucketStore{bucket: bkt, prefix: prefix}, nil
}

// splitURI parses a results/query URI into (scheme, bucket name, key
// prefix). Local paths (no "://") are treated as scheme "file" rooted at
// the given directory itself, per gocloud.dev/blob/fileblob convention —
// the directory becomes the bucket, so the key prefix is empty.
func splitURI(uri string) (scheme, bucketName, prefix string, err error) {
	if !strings.Contains(uri, "://") {
		return "file", uri, "", nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid URI %q: %w", uri, err)
	}
	switch u.Scheme {
	case "s3", "gs":
	default:
		return "", "", "", fmt.Errorf("unsupported URI scheme %q in %q", u.Scheme, uri)
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return u.Scheme, u.Host, p, nil
}

func (s *bucketStore) key(k string) string { return s.prefix + strings.TrimPrefix(k, "/") }

func (s *bucketStore) OpenRead(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, s.key(key), nil)
	if err != nil {
		return nil, elberrors.Dependency("reading %s: %v", key, err)
	}
	return sniffDecompress(r)
}

func (s *bucketStore) OpenWrite(ctx context.Context, key string) (io.WriteCloser, error) {
	w, err := s.bucket.NewWriter(ctx, s.key(key), nil)
	if err != nil {
		return nil, elberrors.Dependency("writing %s: %v", key, err)
	}
	return w, nil
}

func (s *bucketStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, s.key(key))
	if err != nil {
		return false, elberrors.Dependency("checking existence of %s: %v", key, err)
	}
	return ok, nil
}

func (s *bucketStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, s.key(key))
	if err != nil && !isNotExist(s.bucket, ctx, s.key(key), err) {
		return elberrors.Dependency("deleting %s: %v", key, err)
	}
	return nil
}

func isNotExist(bkt *blob.Bucket, ctx context.Context, key string, err error) bool {
	ok, existErr := bkt.Exists(ctx, key)
	return existErr == nil && !ok
}

func (s *bucketStore) Close() error { return s.bucket.Close() }

// OpenQuery opens uri as a single object for reading. Unlike Open, whose
// URI names a directory-like root that keys are resolved under, uri here
// names an exact object — a query input file named in [app].queries —
// so no trailing-slash prefix handling applies.
func OpenQuery(ctx context.Context, uri string) (io.ReadCloser, error) {
	if !strings.Contains(uri, "://") {
		f, err := os.Open(uri)
		if err != nil {
			return nil, elberrors.Dependency("opening query file %s: %v", uri, err)
		}
		return sniffDecompress(f)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, elberrors.Input("invalid query URI %q: %v", uri, err)
	}
	switch u.Scheme {
	case "s3", "gs":
	default:
		return nil, elberrors.Input("unsupported query URI scheme %q in %q", u.Scheme, uri)
	}

	key := strings.TrimPrefix(u.Path, "/")
	bkt, err := blob.OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return nil, elberrors.Dependency("opening bucket for %s: %v", uri, err)
	}
	r, err := bkt.NewReader(ctx, key, nil)
	if err != nil {
		bkt.Close()
		return nil, elberrors.Dependency("reading query %s: %v", uri, err)
	}
	return sniffDecompress(struct {
		io.Reader
		io.Closer
	}{r, closerFunc(func() error {
		rErr := r.Close()
		bErr := bkt.Close()
		if rErr != nil {
			return rErr
		}
		return bErr
	})})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
