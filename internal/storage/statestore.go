// Package storage provides the durable per-project state store backing the
// checkpoint rules: one (hours, last update) record per project name,
// carried across runs in a local SQLite file.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/NBISweden/timelogbot/pkg/models"
)

// timeLayout is the stored form of the last-update timestamp.
const timeLayout = time.RFC3339

// StateStore is a SQLite-backed map from project display name to its last
// observed report state. Opened once per run and closed at the end; the
// file is an exclusively owned local resource.
type StateStore struct {
	db *sql.DB
}

// OpenStateStore opens (creating if needed) the state database at the
// given path. A leading ~ is expanded to the user home directory.
func OpenStateStore(path string) (*StateStore, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("expanding state store path: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening state store %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS projects (
		name TEXT PRIMARY KEY NOT NULL,
		hours REAL,
		date TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating projects table: %w", err)
	}

	return &StateStore{db: db}, nil
}

// Get returns the stored state for a project, or (nil, nil) when the
// project has not been observed before.
func (s *StateStore) Get(name string) (*models.ReportState, error) {
	var hours float64
	var date string
	err := s.db.QueryRow("SELECT hours, date FROM projects WHERE name = ?", name).Scan(&hours, &date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state for %s: %w", name, err)
	}

	lastUpdate, err := time.Parse(timeLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing stored date for %s: %w", name, err)
	}
	return &models.ReportState{Hours: hours, LastUpdate: lastUpdate}, nil
}

// Put upserts the hours for a project. The timestamp is refreshed on every
// call, including when the hours are unchanged.
func (s *StateStore) Put(name string, hours float64) error {
	_, err := s.db.Exec(
		`INSERT INTO projects (name, hours, date) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET hours = excluded.hours, date = excluded.date`,
		name, hours, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("writing state for %s: %w", name, err)
	}
	return nil
}

// Close flushes and closes the database.
func (s *StateStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing state store: %w", err)
	}
	return nil
}
