package cas

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// HashResult contains both SHA-256 and BLAKE3 hashes for a stored blob.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// blake3Pointer is the structure stored in BLAKE3 pointer files.
type blake3Pointer struct {
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
}

// StoreWithBlake3 stores data and records a pointer from its BLAKE3 hash to
// the primary SHA-256 key. Verify uses the pointer as an integrity record.
func (s *Store) StoreWithBlake3(data []byte) (*HashResult, error) {
	sha256Hash, err := s.Store(data)
	if err != nil {
		return nil, err
	}

	blake3Hash := Blake3Hash(data)
	if err := s.createBlake3Pointer(blake3Hash, blake3Pointer{SHA256: sha256Hash, Size: len(data)}); err != nil {
		return nil, errors.Wrap(err, "failed to create BLAKE3 pointer")
	}

	return &HashResult{SHA256: sha256Hash, BLAKE3: blake3Hash}, nil
}

// Pointer files live at <root>/blobs/blake3/<first2>/<blake3>.json.
func (s *Store) pointerPath(blake3Hash string) string {
	return filepath.Join(s.root, "blobs", "blake3", blake3Hash[:2], blake3Hash+".json")
}

func (s *Store) createBlake3Pointer(blake3Hash string, pointer blake3Pointer) error {
	pointerPath := s.pointerPath(blake3Hash)
	if _, err := os.Stat(pointerPath); err == nil {
		return nil
	}

	data, err := json.Marshal(pointer)
	if err != nil {
		return errors.Wrap(err, "failed to marshal pointer")
	}
	return writeAtomic(filepath.Dir(pointerPath), ".pointer-*", pointerPath, data)
}

// LookupBlake3 returns the SHA-256 key recorded for a BLAKE3 hash.
func (s *Store) LookupBlake3(blake3Hash string) (string, error) {
	if !isValidHash(blake3Hash) {
		return "", errors.NewInvalidValue("hash", blake3Hash, "not a BLAKE3 hex digest")
	}

	pointerPath := s.pointerPath(blake3Hash)
	data, err := os.ReadFile(pointerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFound("blake3 pointer", blake3Hash)
		}
		return "", errors.NewIO("read pointer", pointerPath, err)
	}

	var pointer blake3Pointer
	if err := json.Unmarshal(data, &pointer); err != nil {
		return "", errors.NewParse("json", pointerPath, err.Error())
	}
	return pointer.SHA256, nil
}

// Verify re-reads the blob stored under sha256Hash and checks that its
// BLAKE3 pointer agrees with the content.
func (s *Store) Verify(sha256Hash string) error {
	data, err := s.Retrieve(sha256Hash)
	if err != nil {
		return err
	}
	b3 := Blake3Hash(data)
	got, err := s.LookupBlake3(b3)
	if err != nil {
		return err
	}
	if got != sha256Hash {
		return errors.NewParse("blake3 pointer", s.pointerPath(b3), "points at "+got)
	}
	return nil
}

// Blake3Hash computes the BLAKE3 hash of data without storing it.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}
