package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "project", ID: "handbook"},
			wantMsg:  "project not found: handbook",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "workspace"},
			wantMsg:  "workspace not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "blob", ID: "abc", Err: underlyingErr}
		if got := err.Error(); got != "blob not found: abc" {
			t.Errorf("Error() = %q, want %q", got, "blob not found: abc")
		}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
		if !errors.Is(err, ErrNotFound) {
			t.Error("NotFoundError with Err should still match ErrNotFound")
		}
		if !errors.Is(err, underlyingErr) {
			t.Error("NotFoundError should still unwrap to its Err")
		}
		if errors.Is(err, ErrInvalidInput) {
			t.Error("NotFoundError must not match ErrInvalidInput")
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "title", Message: "must not be empty"},
			wantMsg:  "validation failed for title: must not be empty",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "invalid format"},
			wantMsg:  "validation failed: invalid format",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("strconv: invalid syntax")
		err := &ValidationError{Field: "version", Message: "not numeric", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "write", Path: "/out/doc.md", Err: baseErr},
			wantMsg: "failed to write /out/doc.md: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "rename", Err: baseErr},
			wantMsg: "failed to rename: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
			if !errors.Is(tt.err, ErrIO) {
				t.Errorf("errors.Is(%v, ErrIO) = false", tt.err)
			}
		})
	}

	t.Run("keeps os error chain", func(t *testing.T) {
		err := NewIO("open", "missing", fs.ErrNotExist)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("IOError should unwrap to fs.ErrNotExist")
		}
	})
}

func TestAlreadyInitializedError(t *testing.T) {
	tests := []struct {
		name    string
		err     *AlreadyInitializedError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &AlreadyInitializedError{Project: "handbook", Path: "/work/.codebylevel"},
			wantMsg: `project "handbook" already initialized in /work/.codebylevel`,
		},
		{
			name:    "without path",
			err:     &AlreadyInitializedError{Project: "handbook"},
			wantMsg: `project "handbook" already initialized`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrAlreadyExists) {
				t.Errorf("errors.Is(%v, ErrAlreadyExists) = false", tt.err)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ParseError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with path",
			err:      &ParseError{Format: "INI", Path: ".codebylevel/config", Message: "unclosed section"},
			wantMsg:  "failed to parse INI at .codebylevel/config: unclosed section",
			wantBase: ErrInvalidInput,
		},
		{
			name:     "without path",
			err:      &ParseError{Format: "version", Message: "three components expected"},
			wantMsg:  "failed to parse version: three components expected",
			wantBase: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewNotFound", func(t *testing.T) {
		err := NewNotFound("project", "handbook")
		if err.Resource != "project" || err.ID != "handbook" {
			t.Errorf("NewNotFound() = %+v, want Resource=project, ID=handbook", err)
		}
	})

	t.Run("NewValidation", func(t *testing.T) {
		err := NewValidation("audience", "unknown tier")
		if err.Field != "audience" || err.Message != "unknown tier" {
			t.Errorf("NewValidation() = %+v, unexpected values", err)
		}
	})

	t.Run("NewInvalidValue", func(t *testing.T) {
		err := NewInvalidValue("version", "1.x", "not numeric")
		if err.Field != "version" || err.Value != "1.x" || err.Message != "not numeric" {
			t.Errorf("NewInvalidValue() = %+v, unexpected values", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("disk full")
		err := NewIO("write", "/tmp/test", baseErr)
		if err.Operation != "write" || err.Path != "/tmp/test" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v, unexpected values", err)
		}
	})

	t.Run("NewAlreadyInitialized", func(t *testing.T) {
		err := NewAlreadyInitialized("handbook", "/work")
		if err.Project != "handbook" || err.Path != "/work" {
			t.Errorf("NewAlreadyInitialized() = %+v, unexpected values", err)
		}
	})

	t.Run("NewParse", func(t *testing.T) {
		err := NewParse("INI", "config", "invalid syntax")
		if err.Format != "INI" || err.Path != "config" || err.Message != "invalid syntax" {
			t.Errorf("NewParse() = %+v, unexpected values", err)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context message")
		if wrapped == nil {
			t.Fatal("Wrap() returned nil")
		}
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "context message: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
	})
}

func TestWrapf(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	wrapped := Wrapf(baseErr, "failed to load %s", "handbook")
	if !errors.Is(wrapped, baseErr) {
		t.Errorf("Wrapf() error does not unwrap to base error")
	}
	if got, want := wrapped.Error(), "failed to load handbook: base error"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if got := Wrapf(nil, "context %s", "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}

func TestIsAs(t *testing.T) {
	err := Wrap(&NotFoundError{Resource: "project", ID: "123"}, "show")
	if !Is(err, ErrNotFound) {
		t.Error("Is() failed to match NotFoundError to ErrNotFound")
	}
	var nfErr *NotFoundError
	if !As(err, &nfErr) {
		t.Fatal("As() failed to match NotFoundError")
	}
	if nfErr.ID != "123" {
		t.Errorf("As() nfErr.ID = %q, want %q", nfErr.ID, "123")
	}
}
