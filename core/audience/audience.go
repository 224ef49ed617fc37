// Package audience defines the reader tiers a documentation object targets
// and the filter that narrows a resolved document to one tier.
package audience

import (
	"fmt"
	"strings"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// Audience is a reader tier. Tiers are ordered amateur < professional < expert.
type Audience int

const (
	// Amateur targets newcomers.
	Amateur Audience = iota
	// Professional targets working practitioners. It is the default tier.
	Professional
	// Expert targets specialists.
	Expert
)

// Default is the tier assigned when none is given.
const Default = Professional

// All lists every tier in rank order.
var All = []Audience{Amateur, Professional, Expert}

var names = map[Audience]string{
	Amateur:      "amateur",
	Professional: "professional",
	Expert:       "expert",
}

// String returns the lowercase token for the tier.
func (a Audience) String() string {
	if name, ok := names[a]; ok {
		return name
	}
	return fmt.Sprintf("audience(%d)", int(a))
}

// Rank returns the numeric position of the tier (amateur=0).
func (a Audience) Rank() int { return int(a) }

// Valid reports whether a is one of the declared tiers.
func (a Audience) Valid() bool {
	_, ok := names[a]
	return ok
}

// Parse converts a token into a tier. Matching is case-insensitive.
// An empty token yields Default.
func Parse(s string) (Audience, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	if token == "" {
		return Default, nil
	}
	for _, a := range All {
		if names[a] == token {
			return a, nil
		}
	}
	return 0, errors.NewInvalidValue("audience", s,
		fmt.Sprintf("unknown audience %q (want amateur, professional or expert)", s))
}

// ParseLevel parses an optional requested level. An empty token or "all"
// means no level was requested and yields nil.
func ParseLevel(s string) (*Audience, error) {
	if t := strings.TrimSpace(s); t == "" || strings.EqualFold(t, "all") {
		return nil, nil
	}
	a, err := Parse(s)
	if err != nil {
		if ve, ok := err.(*errors.ValidationError); ok {
			ve.Field = "level"
		}
		return nil, err
	}
	return &a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Audience) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errors.NewInvalidValue("audience", a.String(), "not a declared tier")
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Audience) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// LevelString renders an optional level, "all" when nil.
func LevelString(level *Audience) string {
	if level == nil {
		return "all"
	}
	return level.String()
}
