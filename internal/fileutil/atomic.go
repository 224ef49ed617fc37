// Package fileutil provides all-or-nothing file writes.
package fileutil

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// Injectable functions for testing
var (
	osRename      = os.Rename
	osCreateTemp  = os.CreateTemp
	tempFileSync  = func(f *os.File) error { return f.Sync() }
	tempFileClose = func(f io.Closer) error { return f.Close() }
)

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	return Write(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// Write streams fill into a temporary file next to path and renames it into
// place once fill succeeds. Readers see either the old file or the complete
// new one. The parent directory must already exist. On failure no file is
// left behind and the returned error is an *errors.IOError, unless fill
// itself failed, in which case its error is returned wrapped.
func Write(path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewIO("write", path, err)
	}
	if !info.IsDir() {
		return errors.NewIO("write", path, &os.PathError{Op: "stat", Path: dir, Err: os.ErrInvalid})
	}

	tmp, err := osCreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewIO("create temp file for", path, err)
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		tempFileClose(tmp)
		os.Remove(tmpPath)
		return errors.Wrapf(err, "failed to render %s", path)
	}
	if err := bw.Flush(); err != nil {
		tempFileClose(tmp)
		os.Remove(tmpPath)
		return errors.NewIO("write", path, err)
	}
	if err := tempFileSync(tmp); err != nil {
		tempFileClose(tmp)
		os.Remove(tmpPath)
		return errors.NewIO("sync", path, err)
	}
	if err := tempFileClose(tmp); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("close", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("chmod", path, err)
	}

	// Rename to final path (atomic on POSIX)
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
