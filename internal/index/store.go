// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists aggregate results into a SQLite database so chunks
// from successive runs can be queried without re-reading the JSON output.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/guideline-chunker/pkg/types"
)

const defaultLimit = 20

// Store manages the chunk index database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			provenance TEXT NOT NULL,
			created_at TEXT NOT NULL,
			total_chunks INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			source TEXT NOT NULL,
			chunk_id INTEGER NOT NULL,
			cancer_type TEXT,
			heading TEXT,
			text TEXT NOT NULL,
			page INTEGER NOT NULL,
			UNIQUE(source, chunk_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_run_id ON chunks(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Ingest records a run and its chunks in one transaction. Chunks already
// indexed for any document named in sources, or appearing in agg, are
// replaced, so the latest run wins per document even when it produced no
// chunks for it.
func (s *Store) Ingest(ctx context.Context, runID string, agg types.Aggregate, sources []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, provenance, created_at, total_chunks) VALUES (?, ?, ?, ?)`,
		runID, agg.Source, time.Now().UTC().Format(time.RFC3339Nano), agg.TotalChunks,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stale := append([]string(nil), sources...)
	for _, c := range agg.Chunks {
		stale = append(stale, c.Source)
	}
	replaced := make(map[string]bool)
	for _, src := range stale {
		if replaced[src] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, src); err != nil {
			return fmt.Errorf("deleting old chunks for %s: %w", src, err)
		}
		replaced[src] = true
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (run_id, source, chunk_id, cancer_type, heading, text, page)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range agg.Chunks {
		_, err := stmt.ExecContext(ctx, runID, c.Source, c.ChunkID, c.CancerType, c.Heading, c.Text, c.Page)
		if err != nil {
			return fmt.Errorf("inserting chunk %s#%d: %w", c.Source, c.ChunkID, err)
		}
	}

	return tx.Commit()
}

// Query selects chunks from the index.
type Query struct {
	// Text is matched as a substring of the chunk text. SQLite LIKE folds
	// case for ASCII letters only.
	Text string

	// Source restricts results to one document filename.
	Source string

	// Limit caps the number of results (default 20).
	Limit int
}

// Search returns chunks matching q ordered by source, then page.
func (s *Store) Search(ctx context.Context, q Query) ([]types.Chunk, error) {
	var (
		where []string
		args  []any
	)
	if q.Text != "" {
		where = append(where, `text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Text)+"%")
	}
	if q.Source != "" {
		where = append(where, `source = ?`)
		args = append(args, q.Source)
	}

	query := `SELECT chunk_id, cancer_type, heading, text, source, page FROM chunks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	query += ` ORDER BY source, page LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []types.Chunk
	for rows.Next() {
		var c types.Chunk
		if err := rows.Scan(&c.ChunkID, &c.CancerType, &c.Heading, &c.Text, &c.Source, &c.Page); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Runs returns the number of runs recorded.
func (s *Store) Runs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs`).Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
