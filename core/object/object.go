// Package object defines documentation object records and the append-only
// log that holds a project's history of them.
package object

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/version"
)

// Record is one added version of a titled content fragment.
// Records are values; once appended to a Log they are never changed.
type Record struct {
	// ID is a stable identifier assigned by the persistence layer.
	ID string `json:"id,omitempty"`
	// Title identifies the object across versions.
	Title string `json:"title"`
	// Version is the project version this record was written for.
	Version version.Version `json:"version"`
	// Section groups the object in compiled output. Empty means unsectioned.
	Section string `json:"section,omitempty"`
	// Audience is the reader tier the content targets.
	Audience audience.Audience `json:"audience"`
	// Content is stored verbatim.
	Content string `json:"-"`
	// ContentHash is the SHA-256 of Content in the blob store.
	ContentHash string `json:"content_hash,omitempty"`
	// Size is the content length in bytes.
	Size int64 `json:"size"`
	// Sequence is the 1-based insertion index within the project.
	Sequence int64 `json:"sequence"`
	// CreatedAt is when the record was appended.
	CreatedAt time.Time `json:"created_at"`
}

// Tier implements audience.Tiered.
func (r Record) Tier() audience.Audience { return r.Audience }

// Unsectioned reports whether the record has no section.
func (r Record) Unsectioned() bool { return r.Section == "" }

// NormalizeLabel trims s and puts it in Unicode NFC so that titles and
// section names typed with different compositions compare equal.
func NormalizeLabel(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
