// Package resolve computes which record of each title is in effect at a
// target project version.
package resolve

import (
	"sort"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/object"
	"github.com/ike5/CodeByLevelCLI/core/version"
)

// Resolved maps a title to the single record in effect for it.
type Resolved map[string]object.Record

// Resolve returns, for every title, the record with the highest version not
// exceeding target. When several records share that version the one with the
// highest sequence wins. Titles with no record at or below target are absent.
//
// records is not modified. An empty result is not an error.
func Resolve(records []object.Record, target version.Version) Resolved {
	out := make(Resolved)
	for _, r := range records {
		if !r.Version.AtMost(target) {
			continue
		}
		cur, ok := out[r.Title]
		if !ok || supersedes(r, cur) {
			out[r.Title] = r
		}
	}
	return out
}

// At resolves records at target among those visible at level. Records of
// other tiers are dropped before resolution, so a newer record written for
// another audience never hides an older one written for level.
func At(records []object.Record, target version.Version, level *audience.Audience) Resolved {
	return Resolve(audience.Filter(records, level), target)
}

func supersedes(r, cur object.Record) bool {
	switch c := r.Version.Compare(cur.Version); {
	case c > 0:
		return true
	case c < 0:
		return false
	default:
		return r.Sequence > cur.Sequence
	}
}

// Versions returns the distinct versions present in records, ascending.
func Versions(records []object.Record) []version.Version {
	seen := make(map[version.Version]struct{})
	var out []version.Version
	for _, r := range records {
		if _, ok := seen[r.Version]; ok {
			continue
		}
		seen[r.Version] = struct{}{}
		out = append(out, r.Version)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
