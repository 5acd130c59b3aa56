package database

import (
	"context"

	"trip-planner-rag/internal/index"
)

// OpenIndexStore resolves an index location to a store. Postgres URLs get a
// pgvector store, anything else is treated as a SQLite file path. The
// returned close func releases any connection.
func OpenIndexStore(ctx context.Context, location string) (index.Store, func(), error) {
	if !IsPostgresURL(location) {
		return index.NewFileStore(location), func() {}, nil
	}

	db, err := NewDB(ctx, location)
	if err != nil {
		return nil, nil, err
	}

	return NewStore(db), db.Close, nil
}
