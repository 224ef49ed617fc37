package audience

import (
	"errors"
	"testing"

	cblerrors "github.com/ike5/CodeByLevelCLI/core/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Audience
		wantErr bool
	}{
		{"amateur", Amateur, false},
		{"professional", Professional, false},
		{"expert", Expert, false},
		{"EXPERT", Expert, false},
		{"  Amateur ", Amateur, false},
		{"", Professional, false},
		{"beginner", 0, true},
		{"pro", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, cblerrors.ErrInvalidInput) {
					t.Errorf("Parse(%q) error should be a validation error, got %v", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOrdering(t *testing.T) {
	if !(Amateur.Rank() < Professional.Rank() && Professional.Rank() < Expert.Rank()) {
		t.Errorf("ranks out of order: %d %d %d", Amateur.Rank(), Professional.Rank(), Expert.Rank())
	}
	if Default != Professional {
		t.Errorf("Default = %v, want professional", Default)
	}
}

func TestString(t *testing.T) {
	for _, a := range All {
		parsed, err := Parse(a.String())
		if err != nil || parsed != a {
			t.Errorf("Parse(%q) = %v, %v; want %v", a.String(), parsed, err, a)
		}
	}
	if got := Audience(9).String(); got != "audience(9)" {
		t.Errorf("String() of undeclared tier = %q", got)
	}
	if Audience(9).Valid() {
		t.Error("Audience(9) should not be valid")
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	if err != nil || level != nil {
		t.Fatalf("ParseLevel(\"\") = %v, %v; want nil, nil", level, err)
	}

	level, err = ParseLevel("All")
	if err != nil || level != nil {
		t.Fatalf("ParseLevel(All) = %v, %v; want nil, nil", level, err)
	}

	level, err = ParseLevel("amateur")
	if err != nil || level == nil || *level != Amateur {
		t.Fatalf("ParseLevel(amateur) = %v, %v", level, err)
	}

	_, err = ParseLevel("guru")
	var ve *cblerrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("ParseLevel(guru) error = %v, want *ValidationError", err)
	}
	if ve.Field != "level" {
		t.Errorf("Field = %q, want level", ve.Field)
	}
}

func TestLevelString(t *testing.T) {
	if got := LevelString(nil); got != "all" {
		t.Errorf("LevelString(nil) = %q", got)
	}
	e := Expert
	if got := LevelString(&e); got != "expert" {
		t.Errorf("LevelString(expert) = %q", got)
	}
}

type tagged Audience

func (t tagged) Tier() Audience { return Audience(t) }

func TestFilter(t *testing.T) {
	in := []tagged{tagged(Amateur), tagged(Professional), tagged(Expert), tagged(Amateur)}

	t.Run("nil level keeps everything", func(t *testing.T) {
		if got := Filter(in, nil); len(got) != 4 {
			t.Errorf("len = %d, want 4", len(got))
		}
	})

	t.Run("exact match only", func(t *testing.T) {
		level := Amateur
		got := Filter(in, &level)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2: %v", len(got), got)
		}
		for _, v := range got {
			if v.Tier() != Amateur {
				t.Errorf("kept %v at amateur", v.Tier())
			}
		}
	})

	t.Run("no match is empty not error", func(t *testing.T) {
		level := Expert
		if got := Filter([]tagged{tagged(Amateur)}, &level); len(got) != 0 {
			t.Errorf("len = %d, want 0", len(got))
		}
	})

	t.Run("input untouched", func(t *testing.T) {
		level := Expert
		Filter(in, &level)
		if len(in) != 4 || in[0] != tagged(Amateur) {
			t.Errorf("input mutated: %v", in)
		}
	})
}
