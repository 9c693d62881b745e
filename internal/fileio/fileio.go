// Package fileio opens input and output files, compressing by suffix.
package fileio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/mmap"
)

// Compressed reports whether the name carries a compression suffix.
func Compressed(name string) bool {
	return strings.HasSuffix(name, ".zst") || strings.HasSuffix(name, ".gz")
}

// TrimCompression strips a compression suffix.
func TrimCompression(name string) string {
	name = strings.TrimSuffix(name, ".zst")
	return strings.TrimSuffix(name, ".gz")
}

// Open returns a reader of the decompressed contents of name.
func Open(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}

	switch {
	case strings.HasSuffix(name, ".zst"):
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}
		return &stackedCloser{Reader: dec, closers: []func() error{noErr(dec.Close), file.Close}}, nil

	case strings.HasSuffix(name, ".gz"):
		dec, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create gzip reader: %w", err)
		}
		return &stackedCloser{Reader: dec, closers: []func() error{dec.Close, file.Close}}, nil
	}

	return file, nil
}

// ReadFile returns the decompressed contents of name. Plain files are read through mmap.
func ReadFile(name string) ([]byte, error) {
	if Compressed(name) {
		r, err := Open(name)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}

	m, err := mmap.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t map file: %w", err)
	}
	defer m.Close()

	data := make([]byte, m.Len())
	_, err = m.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}

// Create returns a writer that compresses into name by suffix. Close flushes the
// compressor and then closes the file.
func Create(name string) (io.WriteCloser, error) {
	file, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("can`t create file: %w", err)
	}

	switch {
	case strings.HasSuffix(name, ".zst"):
		enc, err := zstd.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd writer: %w", err)
		}
		return &stackedCloser{Writer: enc, closers: []func() error{enc.Close, file.Close}}, nil

	case strings.HasSuffix(name, ".gz"):
		enc := gzip.NewWriter(file)
		return &stackedCloser{Writer: enc, closers: []func() error{enc.Close, file.Close}}, nil
	}

	return file, nil
}

type stackedCloser struct {
	io.Reader
	io.Writer
	closers []func() error
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func noErr(f func()) func() error {
	return func() error {
		f()
		return nil
	}
}
