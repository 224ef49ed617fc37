// Package validation checks user-supplied names, paths and content before
// they reach the workspace.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	cblerrors "github.com/ike5/CodeByLevelCLI/core/errors"
)

// Limits on user input.
const (
	// MaxContentSize is the largest object body accepted by add (16 MB).
	MaxContentSize = 16 << 20
	// MaxNameLength bounds project names, titles and sections.
	MaxNameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrPathTooLong      = errors.New("path too long")
	ErrNameTooLong      = errors.New("name too long")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrBinaryContent    = errors.New("content is not text")
	ErrContentTooLarge  = errors.New("content too large")
)

func invalid(field, value string, sentinel error, detail string) *cblerrors.ValidationError {
	msg := sentinel.Error()
	if detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, detail)
	}
	return &cblerrors.ValidationError{Field: field, Value: value, Message: msg, Err: sentinel}
}

// ValidatePath checks a path given on the command line (--out, --file) for
// length limits and control characters. It does not confine the path.
func ValidatePath(field, path string) error {
	if path == "" {
		return invalid(field, path, ErrEmptyPath, "")
	}
	if len(path) > MaxPathLength {
		return invalid(field, path, ErrPathTooLong, "")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return invalid(field, path, ErrInvalidCharacter, "control character not allowed")
		}
	}
	return nil
}

// ValidateProjectName checks that name is usable as a project identifier:
// non-empty, bounded, a single path element, without control characters and
// not starting with a hyphen.
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("project", name, ErrInvalidName, "must not be empty")
	}
	if len(name) > MaxNameLength {
		return invalid("project", name, ErrNameTooLong, "")
	}
	if name == "." || name == ".." {
		return invalid("project", name, ErrInvalidName, "reserved name")
	}
	if strings.ContainsAny(name, "/\\") {
		return invalid("project", name, ErrInvalidName, "path separator not allowed")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return invalid("project", name, ErrInvalidCharacter, "control character not allowed")
		}
	}
	if strings.HasPrefix(name, "-") {
		return invalid("project", name, ErrInvalidName, "cannot start with hyphen")
	}
	return nil
}

// ValidateLabel checks a title or section for length and control characters.
// Empty labels are left to the caller.
func ValidateLabel(field, label string) error {
	if len(label) > MaxNameLength {
		return invalid(field, label, ErrNameTooLong, "")
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return invalid(field, label, ErrInvalidCharacter, "control character not allowed")
		}
	}
	return nil
}

// ContentType names a recognised binary format.
type ContentType string

const (
	ContentXZ      ContentType = "xz"
	ContentGzip    ContentType = "gzip"
	ContentZip     ContentType = "zip"
	ContentSQLite  ContentType = "sqlite"
	ContentPDF     ContentType = "pdf"
	ContentPNG     ContentType = "png"
	ContentUnknown ContentType = "unknown"
)

var magicBytes = []struct {
	contentType ContentType
	magic       []byte
}{
	{ContentGzip, []byte{0x1f, 0x8b}},
	{ContentXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{ContentZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{ContentSQLite, []byte("SQLite format 3")},
	{ContentPDF, []byte("%PDF-")},
	{ContentPNG, []byte{0x89, 'P', 'N', 'G'}},
}

// DetectBinary returns the binary format data starts with, or ContentUnknown.
func DetectBinary(data []byte) ContentType {
	for _, sig := range magicBytes {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.contentType
		}
	}
	return ContentUnknown
}

// ValidateContent checks an object body: at most MaxContentSize bytes of
// valid UTF-8 text. Empty content is accepted.
func ValidateContent(data []byte) error {
	if len(data) > MaxContentSize {
		return invalid("content", "", ErrContentTooLarge, fmt.Sprintf("%d bytes exceeds %d", len(data), MaxContentSize))
	}
	if t := DetectBinary(data); t != ContentUnknown {
		return invalid("content", "", ErrBinaryContent, fmt.Sprintf("looks like %s data", t))
	}
	if !IsLikelyText(data) {
		return invalid("content", "", ErrBinaryContent, "")
	}
	return nil
}

// IsLikelyText reports whether data is valid UTF-8 without NUL bytes and
// with almost no control characters besides tab, newline and carriage return.
func IsLikelyText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if bytes.IndexByte(data, 0) != -1 || !utf8.Valid(data) {
		return false
	}

	total, control := 0, 0
	for _, r := range string(data) {
		total++
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' && r != '\f' {
			control++
		}
	}
	return float64(control)/float64(total) <= 0.05
}
