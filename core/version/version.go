// Package version provides the semantic version triple used to stamp
// documentation objects and to select what a project looked like at a
// given release.
package version

import (
	"fmt"
	"strings"

	"github.com/blang/semver"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// Version is a MAJOR.MINOR.PATCH triple. The zero value is 0.0.0.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// New returns the version major.minor.patch.
func New(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse validates s as a numeric three component version.
// A leading "v" is accepted. Pre-release and build suffixes are rejected.
func Parse(s string) (Version, error) {
	raw := s
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return Version{}, errors.NewInvalidValue("version", raw, "must not be empty")
	}

	sv, err := semver.Parse(s)
	if err != nil {
		return Version{}, &errors.ValidationError{
			Field:   "version",
			Value:   raw,
			Message: fmt.Sprintf("%q is not a MAJOR.MINOR.PATCH version", raw),
			Err:     err,
		}
	}
	if len(sv.Pre) > 0 || len(sv.Build) > 0 {
		return Version{}, errors.NewInvalidValue("version", raw,
			fmt.Sprintf("%q carries a pre-release or build suffix", raw))
	}

	return New(sv.Major, sv.Minor, sv.Patch), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Version) semver() semver.Version {
	return semver.Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// Compare returns -1, 0 or 1 comparing major, then minor, then patch.
func (v Version) Compare(o Version) int {
	return v.semver().Compare(o.semver())
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtMost reports whether v <= o.
func (v Version) AtMost(o Version) bool { return v.Compare(o) <= 0 }

// String returns the canonical MAJOR.MINOR.PATCH form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Max returns the greater of a and b.
func Max(a, b Version) Version {
	if a.Less(b) {
		return b
	}
	return a
}
