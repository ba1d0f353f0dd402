package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Domain rule violations surfaced to the API layer. Anything else coming out
// of a mutation is a store error and is propagated verbatim.
var (
	// ErrPublishGuard rejects publishing an incident below the casualty floor.
	ErrPublishGuard = errors.New("cannot publish: fatalities + injuries must be at least 4")
	// ErrInvalidStatus rejects a correction transition to an unrecognized status.
	ErrInvalidStatus = errors.New("invalid status: must be pending, reviewed, accepted or rejected")
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.Exec(schema)
	return err
}
