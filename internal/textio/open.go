package textio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// multiReadCloser closes every wrapped closer, returning the first error.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// zstdCloser adapts zstd.Decoder, whose Close has no error result.
type zstdCloser struct {
	dec *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.dec.Close()
	return nil
}

// Open opens path for reading. Gzip and zstd streams are detected by their
// magic bytes or by a .gz / .zst suffix and decompressed transparently.
// The path "-" reads standard input.
func Open(path string) (io.ReadCloser, error) {
	var (
		src    io.Reader
		closer io.Closer
	)
	if path == Stdin {
		src = os.Stdin
		closer = io.NopCloser(nil)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		src = fh
		closer = fh
	}

	br := bufio.NewReader(src)
	sig, _ := br.Peek(len(zstdMagic))

	switch {
	case bytes.HasPrefix(sig, gzipMagic) || strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(br)
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("gzip %s: %w", path, err)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, closer}}, nil
	case bytes.HasPrefix(sig, zstdMagic) || strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(br)
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		return &multiReadCloser{Reader: dec, closers: []io.Closer{zstdCloser{dec}, closer}}, nil
	}
	return &multiReadCloser{Reader: br, closers: []io.Closer{closer}}, nil
}

// ReadLines reads every line of path, without line terminators.
func ReadLines(path string) ([]string, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var lines []string
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
