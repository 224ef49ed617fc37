// Package project is the on-disk store behind the cbl commands.
//
// A workspace is a .codebylevel directory holding the INI config, the
// content-addressed object blobs and a SQLite index of projects and object
// records. Each CLI invocation opens the workspace, does its work and closes
// it again; there is no process-wide handle.
package project

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ike5/CodeByLevelCLI/core/cache"
	"github.com/ike5/CodeByLevelCLI/core/cas"
	"github.com/ike5/CodeByLevelCLI/core/errors"
	"github.com/ike5/CodeByLevelCLI/core/sqlite"
	"github.com/ike5/CodeByLevelCLI/internal/config"
	"github.com/ike5/CodeByLevelCLI/internal/logging"
)

// Layout of a workspace below its parent directory.
const (
	DirName    = ".codebylevel"
	ConfigFile = "config"
	ObjectsDir = "objects"
	IndexFile  = "index.sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS project (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS object (
	id         INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL REFERENCES project(id),
	uuid       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	version    TEXT NOT NULL,
	major      INTEGER NOT NULL,
	minor      INTEGER NOT NULL,
	patch      INTEGER NOT NULL,
	section    TEXT NOT NULL DEFAULT '',
	audience   TEXT NOT NULL,
	hash       TEXT NOT NULL,
	size       INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (project_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_object_title ON object(project_id, title);
`

// Workspace is an open .codebylevel directory.
type Workspace struct {
	root    string
	db      *sql.DB
	blobs   *cas.Store
	content *cache.ContentCache

	// Config is the workspace configuration as loaded by Open.
	Config *config.Config

	now   func() time.Time
	newID func() string
}

// Init creates the workspace layout under dir if it does not exist yet and
// opens it. Calling Init on an existing workspace just opens it.
func Init(ctx context.Context, dir string) (*Workspace, error) {
	root := filepath.Join(dir, DirName)
	for _, d := range []string{root, filepath.Join(root, ObjectsDir)} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, errors.NewIO("create directory", d, err)
		}
	}

	cfgPath := filepath.Join(root, ConfigFile)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := (&config.Config{}).Save(cfgPath); err != nil {
			return nil, err
		}
		logging.DebugContext(ctx, "workspace created", "path", root)
	}

	return Open(ctx, dir)
}

// Open opens the workspace under dir. A missing workspace is a
// *errors.NotFoundError.
func Open(ctx context.Context, dir string) (*Workspace, error) {
	root := filepath.Join(dir, DirName)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "workspace", ID: root}
		}
		return nil, errors.NewIO("stat", root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewIO("open workspace", root, syscall.ENOTDIR)
	}

	cfg, err := config.Load(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, err
	}

	blobs, err := cas.NewStore(filepath.Join(root, ObjectsDir))
	if err != nil {
		return nil, err
	}

	indexPath := filepath.Join(root, IndexFile)
	db, err := sqlite.OpenIndex(indexPath)
	if err != nil {
		return nil, errors.NewIO("open index", indexPath, err)
	}
	if err := sqlite.ApplySchema(db, schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate index", indexPath, err)
	}

	logging.DebugContext(ctx, "workspace opened", "path", root, "driver", sqlite.DriverType())

	return &Workspace{
		root:    root,
		db:      db,
		blobs:   blobs,
		content: cache.NewContentCache(blobs.Retrieve, cache.DefaultContentBytes),
		Config:  cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}, nil
}

// Close releases the index handle.
func (w *Workspace) Close() error {
	return w.db.Close()
}

// Root returns the .codebylevel directory.
func (w *Workspace) Root() string { return w.root }

// ConfigPath returns the path of the INI config.
func (w *Workspace) ConfigPath() string { return filepath.Join(w.root, ConfigFile) }

// SaveConfig writes w.Config back to disk.
func (w *Workspace) SaveConfig() error {
	return w.Config.Save(w.ConfigPath())
}

// CacheStats reports how often object content was served from memory.
func (w *Workspace) CacheStats() cache.Stats {
	return w.content.Stats()
}
