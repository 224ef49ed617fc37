package resolve

import (
	"fmt"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/object"
	"github.com/ike5/CodeByLevelCLI/core/version"
)

type add struct {
	title   string
	ver     string
	section string
	tier    audience.Audience
	content string
}

func build(t *testing.T, adds ...add) []object.Record {
	t.Helper()
	var l object.Log
	for _, a := range adds {
		if _, err := l.Append(object.Record{
			Title:    a.title,
			Version:  version.MustParse(a.ver),
			Section:  a.section,
			Audience: a.tier,
			Content:  a.content,
		}); err != nil {
			t.Fatalf("Append(%s %s): %v", a.title, a.ver, err)
		}
	}
	return l.All()
}

func TestResolveLatestNotExceeding(t *testing.T) {
	records := build(t,
		add{"Welcome", "1.0.0", "API Methods", audience.Amateur, "welcome v1.0.0"},
		add{"Welcome", "1.0.1", "API Methods", audience.Amateur, "welcome v1.0.1"},
	)

	tests := []struct {
		target string
		want   string
	}{
		{"1.0.0", "welcome v1.0.0"},
		{"1.0.1", "welcome v1.0.1"},
		{"9.0.0", "welcome v1.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got := Resolve(records, version.MustParse(tt.target))
			r, ok := got["Welcome"]
			if !ok {
				t.Fatalf("Welcome missing at %s", tt.target)
			}
			if r.Content != tt.want {
				t.Errorf("content = %q, want %q", r.Content, tt.want)
			}
		})
	}
}

func TestResolveAbsenceBelowEarliest(t *testing.T) {
	records := build(t,
		add{"Welcome", "1.0.0", "", audience.Amateur, "a"},
		add{"Summary", "1.2.0", "", audience.Expert, "b"},
	)

	got := Resolve(records, version.MustParse("1.1.0"))
	if _, ok := got["Summary"]; ok {
		t.Error("Summary should be absent below its earliest version")
	}
	if _, ok := got["Welcome"]; !ok {
		t.Error("Welcome should be present")
	}

	empty := Resolve(records, version.MustParse("0.9.9"))
	if len(empty) != 0 {
		t.Errorf("expected empty result below every version, got %v", titles(empty))
	}
}

func TestResolveTieBreakBySequence(t *testing.T) {
	records := build(t,
		add{"Welcome", "1.0.0", "", audience.Professional, "first"},
		add{"Welcome", "1.0.0", "", audience.Professional, "second"},
		add{"Welcome", "0.9.0", "", audience.Professional, "older but later"},
	)

	got := Resolve(records, version.MustParse("1.0.0"))
	if got["Welcome"].Content != "second" {
		t.Errorf("content = %q, want most recently appended duplicate", got["Welcome"].Content)
	}

	// Input order must not matter.
	reversed := make([]object.Record, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	if again := Resolve(reversed, version.MustParse("1.0.0")); again["Welcome"].Content != "second" {
		t.Errorf("reversed input: content = %q, want second", again["Welcome"].Content)
	}
}

func TestResolveIsPure(t *testing.T) {
	records := build(t,
		add{"A", "1.0.0", "s", audience.Amateur, "a1"},
		add{"A", "1.1.0", "s", audience.Amateur, "a2"},
		add{"B", "1.0.5", "", audience.Expert, "b1"},
	)
	before := append([]object.Record(nil), records...)

	first := At(records, version.MustParse("1.0.9"), nil)
	second := At(records, version.MustParse("1.0.9"), nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not idempotent: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(records, before) {
		t.Error("Resolve mutated its input")
	}
}

func TestResolveNeverExceedsTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomVersion := func() version.Version {
		return version.New(uint64(rng.Intn(3)), uint64(rng.Intn(4)), uint64(rng.Intn(5)))
	}

	for i := 0; i < 200; i++ {
		a, b := randomVersion(), randomVersion()
		var l object.Log
		l.Append(object.Record{Title: "T", Version: a, Audience: audience.Amateur})
		l.Append(object.Record{Title: "T", Version: b, Audience: audience.Amateur})

		target := version.Max(a, b)
		got, ok := Resolve(l.All(), target)["T"]
		if !ok {
			t.Fatalf("T absent at max(%v, %v)", a, b)
		}
		if target.Less(got.Version) {
			t.Fatalf("resolved %v above target %v", got.Version, target)
		}
		if got.Version != target {
			t.Fatalf("resolved %v, want %v", got.Version, target)
		}
	}
}

func TestAtExactAudience(t *testing.T) {
	records := build(t,
		add{"Summary", "1.0.0", "", audience.Expert, "s1"},
		add{"Summary", "1.2.0", "", audience.Expert, "s2"},
		add{"Welcome", "1.0.0", "", audience.Amateur, "w1"},
	)

	amateur := audience.Amateur
	got := At(records, version.MustParse("2.0.0"), &amateur)
	if _, ok := got["Summary"]; ok {
		t.Error("expert-only Summary must not be visible to an amateur request")
	}
	if got["Welcome"].Content != "w1" {
		t.Errorf("Welcome = %q, want w1", got["Welcome"].Content)
	}

	all := At(records, version.MustParse("2.0.0"), nil)
	if all["Summary"].Content != "s2" {
		t.Errorf("unfiltered Summary = %q, want s2", all["Summary"].Content)
	}
}

func TestAtFallsBackToOlderRecordOfLevel(t *testing.T) {
	// The latest Welcome is expert-only; an amateur request still sees the
	// older amateur record.
	records := build(t,
		add{"Welcome", "1.0.0", "", audience.Amateur, "easy"},
		add{"Welcome", "1.1.0", "", audience.Expert, "hard"},
	)

	amateur := audience.Amateur
	got := At(records, version.MustParse("2.0.0"), &amateur)
	if got["Welcome"].Content != "easy" {
		t.Errorf("amateur Welcome = %q, want easy", got["Welcome"].Content)
	}

	expert := audience.Expert
	if got := At(records, version.MustParse("1.0.0"), &expert); len(got) != 0 {
		t.Errorf("expert at 1.0.0: got %v, want empty", titles(got))
	}
	if got := At(records, version.MustParse("2.0.0"), nil); got["Welcome"].Content != "hard" {
		t.Errorf("unfiltered Welcome = %q, want hard", got["Welcome"].Content)
	}
}

func TestTitlesAndVersions(t *testing.T) {
	records := build(t,
		add{"b", "1.0.0", "", audience.Amateur, ""},
		add{"a", "0.1.0", "", audience.Amateur, ""},
		add{"c", "1.0.0", "", audience.Amateur, ""},
	)
	if got := titles(Resolve(records, version.MustParse("9.9.9"))); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("titles = %v", got)
	}
	if got := Versions(records); fmt.Sprint(got) != "[0.1.0 1.0.0]" {
		t.Errorf("Versions() = %v", got)
	}
}

func titles(r Resolved) []string {
	out := make([]string, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
