package solar

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// stripCompression removes a trailing .gz or .zst suffix.
func stripCompression(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return path[:len(path)-len(".gz")]
	case strings.HasSuffix(lower, ".zst"):
		return path[:len(path)-len(".zst")]
	}
	return path
}

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenSource opens path for reading. Files ending in .gz are decompressed
// with parallel gzip and files ending in .zst with zstd.
func OpenSource(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open source")
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		// 256KB blocks, one per core
		gz, err := pgzip.NewReaderN(f, 256*1024, runtime.NumCPU())
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "gzip reader")
		}
		return &multiCloser{Reader: gz, closers: []func() error{gz.Close, f.Close}}, nil
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "zstd reader")
		}
		return &multiCloser{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			f.Close,
		}}, nil
	}
	return f, nil
}
