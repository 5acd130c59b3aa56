package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"trip-planner-rag/internal/models"
)

const schema = `
CREATE TABLE meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE entries (
	id       TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	position INTEGER NOT NULL,
	text     TEXT NOT NULL,
	vector   BLOB NOT NULL
);
`

// FileStore persists the index as a single SQLite database file
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the database file path
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether an index file is present
func (s *FileStore) Exists(_ context.Context) (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat index file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", ErrCorrupt, s.path)
	}
	return true, nil
}

// Write stores entries in a fresh database file, replacing any previous one.
// The file only appears at its final path once fully written.
func (s *FileStore) Write(ctx context.Context, entries []models.IndexEntry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := writeDatabase(ctx, tmpPath, entries); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}

	return nil
}

func writeDatabase(ctx context.Context, path string, entries []models.IndexEntry) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (id, source, position, text, vector) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	dimension := 0
	for _, e := range entries {
		dimension = len(e.Vector)
		if _, err := stmt.ExecContext(ctx, e.ID, e.Source, e.Position, e.Text, encodeVector(e.Vector)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", e.ID, err)
		}
	}

	meta := map[string]string{
		"dimension":  strconv.Itoa(dimension),
		"count":      strconv.Itoa(len(entries)),
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to write index metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}

	return nil
}

// Open loads the whole file into an in-memory index
func (s *FileStore) Open(ctx context.Context) (Index, error) {
	ok, err := s.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotBuilt
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'count'`).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: failed to read metadata: %v", ErrCorrupt, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, source, position, text, vector FROM entries ORDER BY source, position`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read entries: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	entries := make([]models.IndexEntry, 0, count)
	for rows.Next() {
		var (
			e    models.IndexEntry
			blob []byte
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Position, &e.Text, &blob); err != nil {
			return nil, fmt.Errorf("%w: failed to scan entry: %v", ErrCorrupt, err)
		}
		if e.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", ErrCorrupt, e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if len(entries) != count {
		return nil, fmt.Errorf("%w: expected %d entries, found %d", ErrCorrupt, count, len(entries))
	}

	m, err := NewMemory(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return m, nil
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob has invalid length %d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
