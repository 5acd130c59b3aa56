package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"trip-planner-rag/internal/index"
	"trip-planner-rag/internal/models"
)

// DB represents the database connection
type DB struct {
	Pool *pgxpool.Pool
}

// NewDB creates a new database connection
func NewDB(ctx context.Context, connStr string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// IsPostgresURL reports whether an index location points at Postgres
func IsPostgresURL(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

// Store is an index.Store keeping chunks in a pgvector table. Searches run in SQL.
type Store struct {
	db *DB
}

// NewStore creates a pgvector backed index store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Initialize sets up the extension and chunk table for vectors of dimension
func (s *Store) Initialize(ctx context.Context, dimension int) error {
	if _, err := s.db.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err := s.db.Pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS trip_chunks (
			id        TEXT PRIMARY KEY,
			source    TEXT NOT NULL,
			position  INTEGER NOT NULL,
			content   TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)
	`, dimension))
	if err != nil {
		return fmt.Errorf("failed to create trip_chunks table: %w", err)
	}

	return nil
}

// Exists reports whether the chunk table holds any rows
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `SELECT to_regclass('trip_chunks') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trip_chunks table: %w", err)
	}
	if !exists {
		return false, nil
	}

	err = s.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trip_chunks)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to count chunks: %w", err)
	}

	return exists, nil
}

// Write replaces the table contents with entries in a single transaction
func (s *Store) Write(ctx context.Context, entries []models.IndexEntry) error {
	if len(entries) == 0 {
		return index.ErrNoChunks
	}

	if err := s.Initialize(ctx, len(entries[0].Vector)); err != nil {
		return err
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `TRUNCATE trip_chunks`); err != nil {
		return fmt.Errorf("failed to clear trip_chunks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO trip_chunks (id, source, position, content, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, e.Source, e.Position, e.Text, pgvector.NewVector(e.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}

	return nil
}

// Open returns an index that queries the table directly
func (s *Store) Open(ctx context.Context) (index.Index, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, index.ErrNotBuilt
	}

	var count int
	if err := s.db.Pool.QueryRow(ctx, `SELECT count(*) FROM trip_chunks`).Scan(&count); err != nil {
		return nil, fmt.Errorf("%w: %v", index.ErrCorrupt, err)
	}

	return &pgIndex{db: s.db, count: count}, nil
}

type pgIndex struct {
	db    *DB
	count int
}

func (p *pgIndex) Len() int {
	return p.count
}

// Search finds chunks similar to the query embedding. Cosine distance is
// turned back into a similarity clamped to [0, 1].
func (p *pgIndex) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := p.db.Pool.Query(ctx, `
		SELECT id, source, position, content,
		       GREATEST(0, LEAST(1, 1 - (embedding <=> $1))) AS score
		FROM trip_chunks
		ORDER BY score DESC, id
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar chunks: %w", err)
	}

	chunks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ScoredChunk, error) {
		var c models.ScoredChunk
		err := row.Scan(&c.ID, &c.Source, &c.Position, &c.Text, &c.Score)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return chunks, nil
}

// Close closes the database connection
func (db *DB) Close() {
	db.Pool.Close()
}
