package project

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ike5/CodeByLevelCLI/core/audience"
	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/core/object"
	"github.com/ike5/CodeByLevelCLI/core/resolve"
	"github.com/ike5/CodeByLevelCLI/core/version"
	"github.com/ike5/CodeByLevelCLI/internal/logging"
	"github.com/ike5/CodeByLevelCLI/internal/validation"
)

// timeLayout is how timestamps are stored in the index.
const timeLayout = time.RFC3339Nano

// Project is a registered documentation project.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time

	// Objects is the number of records in the project's history.
	Objects int
	// Latest is the highest version any record was written for, nil if the
	// project has no records.
	Latest *version.Version
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateProject registers a new project. A project of the same name is an
// *errors.AlreadyInitializedError and nothing is changed.
func (w *Workspace) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	if err := validation.ValidateProjectName(name); err != nil {
		return nil, err
	}
	name = object.NormalizeLabel(name)

	if _, err := w.Project(ctx, name); err == nil {
		return nil, errors.NewAlreadyInitialized(name, w.root)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	created := w.now().UTC()
	res, err := w.db.ExecContext(ctx,
		`INSERT INTO project (name, description, created_at) VALUES (?, ?, ?)`,
		name, description, created.Format(timeLayout))
	if err != nil {
		return nil, errors.NewIO("insert project", w.indexPath(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.NewIO("insert project", w.indexPath(), err)
	}

	logging.InfoContext(logging.WithProject(ctx, name), "project created", "id", id)
	return &Project{ID: id, Name: name, Description: description, CreatedAt: created}, nil
}

// Project looks a project up by name.
func (w *Workspace) Project(ctx context.Context, name string) (*Project, error) {
	name = object.NormalizeLabel(name)
	var (
		p       Project
		created string
	)
	err := w.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM project WHERE name = ?`, name).
		Scan(&p.ID, &p.Name, &p.Description, &created)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("project", name)
	}
	if err != nil {
		return nil, errors.NewIO("query project", w.indexPath(), err)
	}
	if p.CreatedAt, err = w.parseTime(created); err != nil {
		return nil, err
	}
	return &p, nil
}

// Projects lists every project by name with its record count and latest
// version.
func (w *Workspace) Projects(ctx context.Context) ([]Project, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.description, p.created_at, COUNT(o.id)
		FROM project p LEFT JOIN object o ON o.project_id = p.id
		GROUP BY p.id
		ORDER BY p.name`)
	if err != nil {
		return nil, errors.NewIO("query projects", w.indexPath(), err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var (
			p       Project
			created string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created, &p.Objects); err != nil {
			return nil, errors.NewIO("scan project", w.indexPath(), err)
		}
		if p.CreatedAt, err = w.parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query projects", w.indexPath(), err)
	}

	for i := range out {
		if out[i].Objects == 0 {
			continue
		}
		log, err := w.history(ctx, w.db, out[i].ID)
		if err != nil {
			return nil, err
		}
		all := log.All()
		latest := all[0].Version
		for _, r := range all[1:] {
			latest = version.Max(latest, r.Version)
		}
		out[i].Latest = &latest
	}
	return out, nil
}

// DefaultProject picks the project a command should use when none was
// named: the configured default, or the only project in the workspace.
func (w *Workspace) DefaultProject(ctx context.Context) (string, error) {
	if name := w.Config.Defaults.Project; name != "" {
		if _, err := w.Project(ctx, name); err != nil {
			return "", err
		}
		return name, nil
	}

	projects, err := w.Projects(ctx)
	if err != nil {
		return "", err
	}
	switch len(projects) {
	case 0:
		return "", &errors.NotFoundError{Resource: "project", ID: "(none registered, run cbl init)"}
	case 1:
		return projects[0].Name, nil
	}
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return "", errors.NewInvalidValue("project", "",
		fmt.Sprintf("several projects exist (%s); pass --project or set [defaults] project", strings.Join(names, ", ")))
}

// History loads the metadata of every record in the project, in sequence
// order. Content is not loaded; see Hydrate.
func (w *Workspace) History(ctx context.Context, name string) (*object.Log, error) {
	p, err := w.Project(ctx, name)
	if err != nil {
		return nil, err
	}
	return w.history(ctx, w.db, p.ID)
}

func (w *Workspace) history(ctx context.Context, q queryer, projectID int64) (*object.Log, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT uuid, title, version, section, audience, hash, size, seq, created_at
		FROM object WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return nil, errors.NewIO("query objects", w.indexPath(), err)
	}
	defer rows.Close()

	var records []object.Record
	for rows.Next() {
		var (
			r                    object.Record
			ver, tier, createdAt string
		)
		if err := rows.Scan(&r.ID, &r.Title, &ver, &r.Section, &tier, &r.ContentHash, &r.Size, &r.Sequence, &createdAt); err != nil {
			return nil, errors.NewIO("scan object", w.indexPath(), err)
		}
		if r.Version, err = version.Parse(ver); err != nil {
			return nil, w.corrupt("version", r, err)
		}
		if r.Audience, err = audience.Parse(tier); err != nil {
			return nil, w.corrupt("audience", r, err)
		}
		if r.CreatedAt, err = w.parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("query objects", w.indexPath(), err)
	}

	log, err := object.NewLog(records...)
	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			pe.Path = w.indexPath()
		}
		return nil, err
	}
	return log, nil
}

// Add appends r to the named project's history.
//
// The record is appended to the project's log as read inside the
// transaction, which validates and normalizes it and assigns the next
// sequence number. It then gets a fresh ID and a timestamp. Its content is
// written to the blob store before the index row is inserted, so a failed add
// can leave an unreferenced blob but never a record without content.
func (w *Workspace) Add(ctx context.Context, projectName string, r object.Record) (object.Record, error) {
	p, err := w.Project(ctx, projectName)
	if err != nil {
		return object.Record{}, err
	}
	for field, label := range map[string]string{"title": r.Title, "section": r.Section} {
		if err := validation.ValidateLabel(field, label); err != nil {
			return object.Record{}, err
		}
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return object.Record{}, errors.NewIO("begin transaction", w.indexPath(), err)
	}
	defer tx.Rollback()

	log, err := w.history(ctx, tx, p.ID)
	if err != nil {
		return object.Record{}, err
	}

	r.Size = 0
	rec, err := log.Append(r)
	if err != nil {
		return object.Record{}, err
	}

	hashes, err := w.blobs.StoreWithBlake3([]byte(rec.Content))
	if err != nil {
		return object.Record{}, err
	}
	rec.ContentHash = hashes.SHA256
	rec.ID = w.newID()
	rec.CreatedAt = w.now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO object (project_id, uuid, title, version, major, minor, patch,
		                    section, audience, hash, size, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, rec.ID, rec.Title, rec.Version.String(),
		int64(rec.Version.Major), int64(rec.Version.Minor), int64(rec.Version.Patch),
		rec.Section, rec.Audience.String(), rec.ContentHash, rec.Size, rec.Sequence,
		rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return object.Record{}, errors.NewIO("insert object", w.indexPath(), err)
	}
	if err := tx.Commit(); err != nil {
		return object.Record{}, errors.NewIO("commit", w.indexPath(), err)
	}

	logging.ObjectAdded(logging.WithProject(ctx, p.Name), rec.Title, rec.Version.String(), rec.Sequence,
		"audience", rec.Audience.String(), "hash", rec.ContentHash)
	return rec, nil
}

// Content returns the stored body for a content hash.
func (w *Workspace) Content(hash string) (string, error) {
	return w.content.Content(hash)
}

// Hydrate returns a copy of resolved with every record's Content loaded.
func (w *Workspace) Hydrate(resolved resolve.Resolved) (resolve.Resolved, error) {
	out := make(resolve.Resolved, len(resolved))
	for title, r := range resolved {
		body, err := w.Content(r.ContentHash)
		if err != nil {
			return nil, errors.Wrapf(err, "object %q (seq %d)", r.Title, r.Sequence)
		}
		r.Content = body
		out[title] = r
	}
	return out, nil
}

// Problem is a record whose stored content failed verification.
type Problem struct {
	Record object.Record
	Err    error
}

// Verify re-reads every blob referenced by the project and checks it
// against its SHA-256 key and BLAKE3 pointer.
func (w *Workspace) Verify(ctx context.Context, name string) ([]Problem, error) {
	log, err := w.History(ctx, name)
	if err != nil {
		return nil, err
	}
	var problems []Problem
	for _, r := range log.All() {
		if err := w.blobs.Verify(r.ContentHash); err != nil {
			problems = append(problems, Problem{Record: r, Err: err})
		}
	}
	return problems, nil
}

func (w *Workspace) indexPath() string {
	return filepath.Join(w.root, IndexFile)
}

func (w *Workspace) parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, &errors.ParseError{Format: "timestamp", Path: w.indexPath(), Message: err.Error(), Err: err}
	}
	return t, nil
}

func (w *Workspace) corrupt(field string, r object.Record, err error) error {
	return &errors.ParseError{
		Format:  "stored " + field,
		Path:    w.indexPath(),
		Message: fmt.Sprintf("object %q (seq %d): %v", r.Title, r.Sequence, err),
		Err:     err,
	}
}
