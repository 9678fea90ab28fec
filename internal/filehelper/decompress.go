package filehelper

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/alphauslabs/elastic-blast-go/internal/elberrors"
)

// tarMagicOffset and tarMagic are the "ustar" magic bytes at the fixed
// offset in a POSIX tar header, used to sniff tar content without relying
// on filename suffixes.
const (
	tarMagicOffset = 257
	tarPeekLen     = tarMagicOffset + 6
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{'B', 'Z', 'h'}
	tarMagic   = []byte{0x75, 0x73, 0x74, 0x61, 0x72} // "ustar"
)

// sniffDecompress wraps r in whatever decoders its leading bytes call for,
// composing them (tar-of-gzip, gzip-of-plain, ...) instead of relying on
// the caller's filename suffix. This replaces exception-driven
// "try gzip, catch, try tar, catch" control flow with explicit content
// sniffing.
func sniffDecompress(r io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, tarPeekLen)

	head, _ := br.Peek(3)
	switch {
	case len(head) >= 2 && bytes.Equal(head[:2], gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, elberrors.Wrap(elberrors.KindInput, err, "malformed input: .gz-like magic but invalid gzip stream")
		}
		inner, err := sniffDecompress(struct {
			io.Reader
			io.Closer
		}{gz, r})
		return inner, err
	case len(head) >= 3 && bytes.Equal(head, bzip2Magic):
		bz := bzip2.NewReader(br)
		inner, err := sniffDecompress(struct {
			io.Reader
			io.Closer
		}{bz, r})
		return inner, err
	}

	if tarHead, err := br.Peek(tarPeekLen); err == nil && bytes.Equal(tarHead[tarMagicOffset:tarMagicOffset+5], tarMagic) {
		return newTarConcatReader(struct {
			io.Reader
			io.Closer
		}{br, r}), nil
	}

	return struct {
		io.Reader
		io.Closer
	}{br, r}, nil
}

// tarConcatReader treats a tar archive's members as one logical
// concatenated stream, in archive order, matching the query-stream
// contract (a tar is a concatenation of its members).
type tarConcatReader struct {
	tr     *tar.Reader
	closer io.Closer
}

func newTarConcatReader(rc io.ReadCloser) io.ReadCloser {
	return &tarConcatReader{tr: tar.NewReader(rc), closer: rc}
}

func (t *tarConcatReader) Read(p []byte) (int, error) {
	for {
		n, err := t.tr.Read(p)
		if err == io.EOF {
			if _, hdrErr := t.tr.Next(); hdrErr == io.EOF {
				return n, io.EOF
			} else if hdrErr != nil {
				return n, elberrors.Wrap(elberrors.KindInput, hdrErr, "malformed input: tar archive")
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (t *tarConcatReader) Close() error { return t.closer.Close() }
