package compile

import (
	"sort"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/object"
	"github.com/ike5/CodeByLevelCLI/core/resolve"
	"github.com/ike5/CodeByLevelCLI/core/version"
)

// Options describe the document being compiled.
type Options struct {
	Project string
	Version version.Version
	Level   *audience.Audience
	// PinnedSections are placed first, in this order, when present.
	// Remaining sections follow in first-seen order.
	PinnedSections []string
}

// Compile groups resolved by section and orders the result.
//
// records is the project's full history. Sections appear in the order they
// were first used by any record, after any pinned sections. Within a section,
// entries are ordered by the sequence at which their title first appeared.
// Sections without resolved entries are omitted.
func Compile(resolved resolve.Resolved, records []object.Record, opts Options) *Document {
	firstSection := make(map[string]int64)
	firstTitle := make(map[string]int64)
	for _, r := range records {
		if s, ok := firstSection[r.Section]; !ok || r.Sequence < s {
			firstSection[r.Section] = r.Sequence
		}
		if s, ok := firstTitle[r.Title]; !ok || r.Sequence < s {
			firstTitle[r.Title] = r.Sequence
		}
	}
	// Resolved records are normally part of records; cover callers that
	// pass a narrower history.
	for _, r := range resolved {
		if _, ok := firstSection[r.Section]; !ok {
			firstSection[r.Section] = r.Sequence
		}
		if _, ok := firstTitle[r.Title]; !ok {
			firstTitle[r.Title] = r.Sequence
		}
	}

	groups := make(map[string][]Entry)
	for _, r := range resolved {
		groups[r.Section] = append(groups[r.Section], Entry{
			Section:  r.Section,
			Title:    r.Title,
			Version:  r.Version,
			Audience: r.Audience,
			Content:  r.Content,
		})
	}

	doc := &Document{
		Project:  opts.Project,
		Version:  opts.Version,
		Level:    opts.Level,
		Sections: make([]Section, 0, len(groups)),
	}

	for _, name := range sectionOrder(groups, firstSection, opts.PinnedSections) {
		entries := groups[name]
		sort.Slice(entries, func(i, j int) bool {
			a, b := firstTitle[entries[i].Title], firstTitle[entries[j].Title]
			if a != b {
				return a < b
			}
			return entries[i].Title < entries[j].Title
		})
		doc.Sections = append(doc.Sections, Section{Name: name, Entries: entries})
	}

	return doc
}

func sectionOrder(groups map[string][]Entry, firstSeen map[string]int64, pinned []string) []string {
	order := make([]string, 0, len(groups))
	placed := make(map[string]bool, len(groups))

	for _, p := range pinned {
		p = object.NormalizeLabel(p)
		if _, ok := groups[p]; ok && !placed[p] {
			order = append(order, p)
			placed[p] = true
		}
	}

	var rest []string
	for name := range groups {
		if !placed[name] {
			rest = append(rest, name)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := firstSeen[rest[i]], firstSeen[rest[j]]
		if a != b {
			return a < b
		}
		return rest[i] < rest[j]
	})

	return append(order, rest...)
}
