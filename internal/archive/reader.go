// Package archive writes and reads the compressed tar bundles produced by
// cbl export. Both tar.xz and tar.gz are supported.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// Archive formats, also used as file suffixes.
const (
	FormatTarXz = ".tar.xz"
	FormatTarGz = ".tar.gz"
)

// DetectFormat returns FormatTarXz or FormatTarGz for path, or "" when the
// extension is neither.
func DetectFormat(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, FormatTarXz):
		return FormatTarXz
	case strings.HasSuffix(lower, FormatTarGz), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz
	}
	return ""
}

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	path         string
	file         *os.File
	decompressor io.Closer
}

// NewReader opens the archive at path.
func NewReader(path string) (*Reader, error) {
	format := DetectFormat(path)
	if format == "" {
		return nil, errors.NewInvalidValue("archive", path, "unsupported archive format")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("archive", path)
		}
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader
	var decompressor io.Closer
	switch format {
	case FormatTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "xz", Path: path, Message: err.Error(), Err: err}
		}
		reader = xzr
	case FormatTarGz:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, &errors.ParseError{Format: "gzip", Path: path, Message: err.Error(), Err: err}
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		path:         path,
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the archive reader and any underlying decompressors.
func (r *Reader) Close() error {
	var first error
	if r.decompressor != nil {
		first = r.decompressor.Close()
	}
	if err := r.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// Visitor is called for every archive entry.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &errors.ParseError{Format: "tar", Path: r.path, Message: err.Error(), Err: err}
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Walk opens an archive and iterates through its entries.
func Walk(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// List returns the names of the regular files in the archive, relative to
// its top directory, sorted.
func List(path string) ([]string, error) {
	var names []string
	err := Walk(path, func(header *tar.Header, _ io.Reader) (bool, error) {
		if header.Typeflag == tar.TypeReg {
			names = append(names, stripTop(header.Name))
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile reads one file from the archive. filename may include or omit
// the top directory.
func ReadFile(archivePath, filename string) ([]byte, error) {
	var content []byte
	found := false
	err := Walk(archivePath, func(header *tar.Header, r io.Reader) (bool, error) {
		if header.Name == filename || stripTop(header.Name) == filename {
			var err error
			content, err = io.ReadAll(r)
			found = true
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.NewNotFound("archive entry", filename)
	}
	return content, nil
}

func stripTop(name string) string {
	if idx := strings.Index(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
