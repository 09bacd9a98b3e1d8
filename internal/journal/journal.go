// Package journal keeps a local record of attestations created from
// this machine, so `treeship log` can list them without a network call.
// The journal is a convenience index, not a trust anchor: the signed
// record on the server remains the source of truth.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// ErrNotFound is returned when an entry doesn't exist.
var ErrNotFound = errors.New("entry not found")

// Entry is one recorded attestation.
type Entry struct {
	ID         string    `json:"id"`
	AgentSlug  string    `json:"agent_slug"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	URL        string    `json:"url"`
	Timestamp  string    `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
}

// Journal provides attestation history storage using SQLite.
type Journal struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates a journal at the given path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS attestations (
			id          TEXT PRIMARY KEY,
			agent_slug  TEXT NOT NULL,
			action      TEXT NOT NULL,
			inputs_hash TEXT NOT NULL,
			url         TEXT NOT NULL,
			timestamp   TEXT NOT NULL,
			created_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_attestations_agent ON attestations(agent_slug);
		CREATE INDEX IF NOT EXISTS idx_attestations_created ON attestations(created_at);
	`)
	return err
}

// Record stores one attestation. Recording the same ID twice is a
// no-op; the server-issued record is immutable, so there is nothing to
// update.
func (j *Journal) Record(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if e.ID == "" {
		return errors.New("entry missing id")
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT OR IGNORE INTO attestations (id, agent_slug, action, inputs_hash, url, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.AgentSlug, e.Action, e.InputsHash, e.URL, e.Timestamp,
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// Get returns the entry with the given attestation ID.
func (j *Journal) Get(id string) (*Entry, error) {
	row := j.db.QueryRow(`
		SELECT id, agent_slug, action, inputs_hash, url, timestamp, created_at
		FROM attestations WHERE id = ?
	`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.Query(`
		SELECT id, agent_slug, action, inputs_hash, url, timestamp, created_at
		FROM attestations ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded attestations.
func (j *Journal) Count() (int, error) {
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM attestations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var createdAt string
	if err := s.Scan(&e.ID, &e.AgentSlug, &e.Action, &e.InputsHash, &e.URL, &e.Timestamp, &createdAt); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = ts
	}
	return &e, nil
}
