/*
Package sqlite provides a SQLite-backed implementation of document.Store.

PURPOSE:
  Persists election documents (lists and candidates included) and the
  allocation runs computed from them. The in-memory store in
  document/store has the same behaviour; this one survives restarts.

KEY TABLES:
  documents:  one row per document
  lists:      a document's lists, ordered by position
  candidates: a list's candidates, ordered by position
  runs:       append-only allocation results, payload stored as JSON

  Lists and candidates are keyed by (document_id, id): two documents
  imported from the same file may reuse list and candidate ids.

SAVING:
  SaveDocument upserts the document row and rewrites its lists and
  candidates inside one transaction. Runs are never touched by a save;
  they go away only with DeleteDocument (ON DELETE CASCADE).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/seats.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - document/store.go: Interface definition
  - document/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/seat-engine/document"
	"github.com/warp/seat-engine/election"
)

var _ document.Store = (*Store)(nil)

// Store implements document.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		district_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS lists (
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		votes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (document_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_lists_document_position
		ON lists(document_id, position);

	CREATE TABLE IF NOT EXISTS candidates (
		document_id TEXT NOT NULL,
		list_id TEXT NOT NULL,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		confession TEXT NOT NULL,
		pref_votes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (document_id, list_id, id),
		FOREIGN KEY (document_id, list_id) REFERENCES lists(document_id, id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_list_position
		ON candidates(document_id, list_id, position);

	-- Runs (append-only)
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		error TEXT,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_document
		ON runs(document_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENTS
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveDocument upserts a document and rewrites its lists and candidates.
func (s *Store) SaveDocument(ctx context.Context, doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, district_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			district_id = excluded.district_id,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Name, doc.DistrictID, formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear lists: %w", err)
	}
	for i, l := range doc.Lists {
		if err := insertList(ctx, tx, doc.ID, i, l); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertList(ctx context.Context, db execer, documentID string, position int, l election.List) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO lists (document_id, id, position, name, color, votes) VALUES (?, ?, ?, ?, ?, ?)",
		documentID, l.ID, position, l.Name, l.Color, l.Votes,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("duplicate list id %q: %w", l.ID, err)
		}
		return fmt.Errorf("failed to save list: %w", err)
	}
	for j, c := range l.Candidates {
		_, err := db.ExecContext(ctx, `
			INSERT INTO candidates (document_id, list_id, id, position, name, confession, pref_votes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, documentID, l.ID, c.ID, j, c.Name, string(c.Confession), c.PreferentialVotes)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("duplicate candidate id %q in list %q: %w", c.ID, l.ID, err)
			}
			return fmt.Errorf("failed to save candidate: %w", err)
		}
	}
	return nil
}

// GetDocument loads a document with its lists and candidates.
func (s *Store) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc document.Document
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, district_id, created_at, updated_at FROM documents WHERE id = ?",
		id,
	).Scan(&doc.ID, &doc.Name, &doc.DistrictID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", document.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)

	doc.Lists, err = s.loadLists(ctx, id)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) loadLists(ctx context.Context, documentID string) ([]election.List, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, color, votes FROM lists WHERE document_id = ? ORDER BY position",
		documentID,
	)
	if err != nil {
		return nil, err
	}
	var lists []election.List
	index := make(map[string]int)
	for rows.Next() {
		var l election.List
		if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.Votes); err != nil {
			rows.Close()
			return nil, err
		}
		index[l.ID] = len(lists)
		lists = append(lists, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		"SELECT list_id, id, name, confession, pref_votes FROM candidates WHERE document_id = ? ORDER BY list_id, position",
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var listID, confession string
		var c election.Candidate
		if err := rows.Scan(&listID, &c.ID, &c.Name, &confession, &c.PreferentialVotes); err != nil {
			return nil, err
		}
		c.Confession = election.Confession(confession)
		i, ok := index[listID]
		if !ok {
			continue
		}
		lists[i].Candidates = append(lists[i].Candidates, c)
	}
	return lists, rows.Err()
}

// ListDocuments returns all documents, most recently updated first.
func (s *Store) ListDocuments(ctx context.Context) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, district_id, created_at, updated_at FROM documents ORDER BY updated_at DESC, id",
	)
	if err != nil {
		return nil, err
	}
	var docs []*document.Document
	for rows.Next() {
		var doc document.Document
		var createdAt, updatedAt string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.DistrictID, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		doc.CreatedAt = parseTime(createdAt)
		doc.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, &doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if doc.Lists, err = s.loadLists(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// DeleteDocument removes a document; lists, candidates and runs cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", document.ErrDocumentNotFound, id)
	}
	return nil
}

// =============================================================================
// RUNS
// =============================================================================

// runPayload is the JSON column of a run.
type runPayload struct {
	Steps      []election.Step     `json:"steps"`
	Winners    []election.Winner   `json:"winners,omitempty"`
	Seats      []document.RunSeats `json:"seats,omitempty"`
	Quotient   string              `json:"quotient,omitempty"`
	Eliminated []string            `json:"eliminated,omitempty"`
}

// SaveRun appends a run. Runs are never updated.
func (s *Store) SaveRun(ctx context.Context, run document.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", run.DocumentID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", document.ErrDocumentNotFound, run.DocumentID)
	}

	payload, err := json.Marshal(runPayload{
		Steps:      run.Steps,
		Winners:    run.Winners,
		Seats:      run.Seats,
		Quotient:   run.Quotient,
		Eliminated: run.Eliminated,
	})
	if err != nil {
		return fmt.Errorf("failed to encode run: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO runs (id, document_id, error, payload_json, created_at) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.DocumentID, nullString(run.Error), string(payload), formatTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// ListRuns returns a document's runs, oldest first.
func (s *Store) ListRuns(ctx context.Context, documentID string) ([]document.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, error, payload_json, created_at FROM runs WHERE document_id = ? ORDER BY created_at, rowid",
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []document.Run{}
	for rows.Next() {
		var run document.Run
		var runErr sql.NullString
		var payloadJSON, createdAt string
		if err := rows.Scan(&run.ID, &run.DocumentID, &runErr, &payloadJSON, &createdAt); err != nil {
			return nil, err
		}
		var p runPayload
		if err := json.Unmarshal([]byte(payloadJSON), &p); err != nil {
			return nil, fmt.Errorf("corrupt run %s: %w", run.ID, err)
		}
		run.Error = runErr.String
		run.CreatedAt = parseTime(createdAt)
		run.Steps = p.Steps
		run.Winners = p.Winners
		run.Seats = p.Seats
		run.Quotient = p.Quotient
		run.Eliminated = p.Eliminated
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"runs", "candidates", "lists", "documents"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout keeps every fractional digit so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY"))
}
