// Package compile turns a resolved, audience-filtered set of objects into an
// ordered document and renders it.
package compile

import (
	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/version"
)

// UnsectionedLabel is shown for objects that carry no section.
const UnsectionedLabel = "Unsectioned"

// Document is the compiled view of a project at one version and level.
// It is derived on every invocation and never persisted.
type Document struct {
	Project  string
	Version  version.Version
	Level    *audience.Audience
	Sections []Section
}

// Section is a named group of entries. Name is empty for unsectioned objects.
type Section struct {
	Name    string
	Entries []Entry
}

// Label returns the display name of the section.
func (s Section) Label() string {
	if s.Name == "" {
		return UnsectionedLabel
	}
	return s.Name
}

// Entry is one resolved object placed in the document.
type Entry struct {
	Section  string
	Title    string
	Version  version.Version
	Audience audience.Audience
	Content  string
}

// Entries returns every entry in document order.
func (d *Document) Entries() []Entry {
	var out []Entry
	for _, s := range d.Sections {
		out = append(out, s.Entries...)
	}
	return out
}

// Len returns the number of entries.
func (d *Document) Len() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Entries)
	}
	return n
}

// Empty reports whether no title resolved.
func (d *Document) Empty() bool { return d.Len() == 0 }
