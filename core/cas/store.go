// Package cas provides content-addressed storage for object bodies.
// Blobs are keyed by the SHA-256 of their uncompressed content and stored
// xz-compressed, so identical content written twice occupies one file.
package cas

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ulikunitz/xz"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// tempFileClose is a function variable for closing temp files (for testing).
var tempFileClose = func(f io.Closer) error {
	return f.Close()
}

// sha256Pattern matches a valid lowercase SHA-256 hex string (64 characters).
var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root string
}

// NewStore creates a store at root, creating blobs/sha256 if needed.
func NewStore(root string) (*Store, error) {
	blobDir := filepath.Join(root, "blobs", "sha256")
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, errors.NewIO("create blob directory", blobDir, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Store compresses and stores data, returning the SHA-256 of the
// uncompressed bytes. Storing content that already exists is a no-op.
func (s *Store) Store(data []byte) (string, error) {
	hash := Hash(data)
	if s.Exists(hash) {
		return hash, nil
	}
	blobPath := s.pathForHash(hash)

	packed, err := compress(data)
	if err != nil {
		return "", errors.Wrap(err, "failed to compress blob")
	}

	if err := writeAtomic(filepath.Dir(blobPath), ".blob-*", blobPath, packed); err != nil {
		return "", err
	}
	return hash, nil
}

// Retrieve returns the uncompressed content stored under hash.
// A missing blob is a *errors.NotFoundError; a malformed hash is a
// *errors.ValidationError.
func (s *Store) Retrieve(hash string) ([]byte, error) {
	if !isValidHash(hash) {
		return nil, errors.NewInvalidValue("hash", hash, "not a SHA-256 hex digest")
	}

	blobPath := s.pathForHash(hash)
	packed, err := os.ReadFile(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("blob", hash)
		}
		return nil, errors.NewIO("read blob", blobPath, err)
	}

	data, err := decompress(packed)
	if err != nil {
		return nil, errors.NewParse("xz", blobPath, err.Error())
	}
	if Hash(data) != hash {
		return nil, errors.NewParse("blob", blobPath, "content does not match its hash")
	}
	return data, nil
}

// Exists reports whether a blob with the given hash is stored.
func (s *Store) Exists(hash string) bool {
	if !isValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// pathForHash returns <root>/blobs/sha256/<first2>/<hash>.
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}

func isValidHash(hash string) bool {
	return sha256Pattern.MatchString(hash)
}

// Hash computes the SHA-256 hash of data without storing it.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(packed []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// writeAtomic writes data to a temp file in dir and renames it to dest.
func writeAtomic(dir, pattern, dest string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("create directory", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return errors.NewIO("create temp file", dir, err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, data); err != nil {
		tempFileClose(tempFile)
		os.Remove(tempPath)
		return errors.NewIO("write", tempPath, err)
	}

	if err := tempFileClose(tempFile); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("close", tempPath, err)
	}

	if err := osRename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return errors.NewIO("rename", dest, err)
	}
	return nil
}
