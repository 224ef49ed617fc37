// Package capture collects the body of a new object from the command line,
// a file or piped stdin.
package capture

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/internal/validation"
)

// Injectable for testing
var isTerminal = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Options name the possible content sources. At most one of File and
// Content may be set; when neither is, piped Stdin is read.
type Options struct {
	File    string
	Content string

	// Stdin is read when no other source is given. If it is a terminal it is
	// treated as absent.
	Stdin io.Reader
}

// Read returns the object body described by opts.
//
// Missing content is a *errors.ValidationError for field "content". A
// missing --file is a *errors.NotFoundError.
func Read(opts Options) ([]byte, error) {
	if opts.File != "" && opts.Content != "" {
		return nil, errors.NewValidation("content", "use only one of --file and --content")
	}

	var (
		data []byte
		err  error
	)
	switch {
	case opts.File != "":
		data, err = readFile(opts.File)
	case opts.Content != "":
		data = []byte(opts.Content)
	default:
		data, err = readStdin(opts.Stdin)
	}
	if err != nil {
		return nil, err
	}

	if err := validation.ValidateContent(data); err != nil {
		return nil, err
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	if err := validation.ValidatePath("file", path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	return data, nil
}

func readStdin(r io.Reader) ([]byte, error) {
	if r == nil || interactive(r) {
		return nil, errors.NewValidation("content",
			"no content given (use --file, --content or pipe it on stdin)")
	}
	data, err := io.ReadAll(io.LimitReader(r, validation.MaxContentSize+1))
	if err != nil {
		return nil, errors.NewIO("read", "stdin", err)
	}
	if len(data) == 0 {
		return nil, errors.NewValidation("content", "stdin was empty")
	}
	return data, nil
}

func interactive(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && isTerminal(f.Fd())
}
