// Package database opens the SQLite file shared by the lunch menu binaries
// and brings its schema up to date.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite" // Pure Go sqlite driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// busyTimeoutMS is how long a writer waits for a lock held by another
// process before SQLITE_BUSY.
const busyTimeoutMS = 5000

// DB is an open database whose schema is current.
type DB struct {
	SQL     *sql.DB
	Path    string
	Version uint
}

// NewDB creates the directory of path if needed, applies the migrations found
// in migrations and opens the database. migrations holds golang-migrate files
// (NNN_name.up.sql / .down.sql) at its root.
func NewDB(path string, migrations fs.FS) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The schema must be current before the app opens its own pool.
	version, err := Migrate(path, migrations)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMS)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{"path": path, "version": version}).Debug("database ready")
	return &DB{SQL: conn, Path: path, Version: version}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.SQL.Close()
}

// Migrate applies every pending up migration and returns the resulting
// schema version. An already current schema is not an error.
func Migrate(path string, migrations fs.FS) (uint, error) {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+path)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
