package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/internal/fileutil"
)

// File is one regular file to place in an archive.
type File struct {
	Name string
	Data []byte
}

// Create writes files into a new archive at path, each under baseDir/.
// The compression is chosen from the extension of path (see DetectFormat).
// Every entry carries modTime so that equal input gives equal output.
// The archive is written atomically; the parent directory must exist.
func Create(path, baseDir string, files []File, modTime time.Time) error {
	format := DetectFormat(path)
	if format == "" {
		return errors.NewInvalidValue("out", path, "archive must end in .tar.xz or .tar.gz")
	}

	return fileutil.Write(path, 0644, func(w io.Writer) error {
		cw, err := compressor(format, w)
		if err != nil {
			return err
		}

		tw := tar.NewWriter(cw)
		if err := tw.WriteHeader(&tar.Header{
			Name:     baseDir + "/",
			Mode:     0755,
			Typeflag: tar.TypeDir,
			ModTime:  modTime,
		}); err != nil {
			return err
		}
		for _, f := range files {
			if err := tw.WriteHeader(&tar.Header{
				Name:     baseDir + "/" + f.Name,
				Mode:     0644,
				Size:     int64(len(f.Data)),
				Typeflag: tar.TypeReg,
				ModTime:  modTime,
			}); err != nil {
				return err
			}
			if _, err := tw.Write(f.Data); err != nil {
				return err
			}
		}

		if err := tw.Close(); err != nil {
			return err
		}
		return cw.Close()
	})
}

func compressor(format string, w io.Writer) (io.WriteCloser, error) {
	if format == FormatTarGz {
		return gzip.NewWriter(w), nil
	}
	return xz.NewWriter(w)
}
