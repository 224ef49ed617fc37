package object

import (
	"fmt"
	"sort"

	"github.com/ike5/CodeByLevelCLI/core/errors"
)

// Log is the append-only object store of a single project.
//
// Sequence numbers are assigned by Append and increase strictly. Nothing in
// the log is ever updated or removed; corrections are new records.
type Log struct {
	records []Record
	last    int64
}

// NewLog rebuilds a log from previously persisted records.
// Records are ordered by sequence; duplicate or non-positive sequences are
// rejected as corrupt.
func NewLog(records ...Record) (*Log, error) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})

	var last int64
	for _, r := range sorted {
		if r.Sequence <= last {
			return nil, errors.NewParse("object log", "",
				fmt.Sprintf("sequence %d of %q is not increasing", r.Sequence, r.Title))
		}
		last = r.Sequence
	}

	return &Log{records: sorted, last: last}, nil
}

// Append validates r, assigns it the next sequence number and adds it to the
// log. The stored copy is returned. On error the log is unchanged.
func (l *Log) Append(r Record) (Record, error) {
	r, err := l.prepare(r)
	if err != nil {
		return Record{}, err
	}
	l.records = append(l.records, r)
	l.last = r.Sequence
	return r, nil
}

// prepare validates and normalizes r and stamps it with the sequence the next
// Append would assign, without changing the log.
func (l *Log) prepare(r Record) (Record, error) {
	r.Title = NormalizeLabel(r.Title)
	r.Section = NormalizeLabel(r.Section)

	if r.Title == "" {
		return Record{}, errors.NewValidation("title", "must not be empty")
	}
	if !r.Audience.Valid() {
		return Record{}, errors.NewInvalidValue("audience", r.Audience.String(), "not a declared tier")
	}
	if r.Size == 0 {
		r.Size = int64(len(r.Content))
	}

	r.Sequence = l.last + 1
	return r, nil
}

// All returns every record in sequence order. The slice is a copy.
func (l *Log) All() []Record {
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Log) Len() int { return len(l.records) }

// LastSequence returns the highest assigned sequence, 0 for an empty log.
func (l *Log) LastSequence() int64 { return l.last }
