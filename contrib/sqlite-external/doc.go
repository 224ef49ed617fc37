// Package sqliteexternal provides the optional CGO SQLite driver for the
// workspace index.
//
// To use the CGO driver (github.com/mattn/go-sqlite3), build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/cbl
//
// By default cbl uses modernc.org/sqlite, a pure Go driver that needs no C
// toolchain and cross-compiles cleanly. See core/sqlite.
package sqliteexternal
