package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tourify/guide-api/internal/domain"
)

// SQLiteStore implements DocumentStore on a single JSON documents table.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements DocumentStore.
var _ DocumentStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(collection, updated_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns one document.
func (s *SQLiteStore) Get(ctx context.Context, path DocPath) (*Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		path.Collection(), path.ID(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	fields, err := decodeFields(data)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &Document{Path: path, Fields: fields}, nil
}

// Create inserts a document that must not exist yet.
func (s *SQLiteStore) Create(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		path.Collection(), path.ID(), string(data), now, now,
	)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// Put creates or replaces a document.
func (s *SQLiteStore) Put(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		path.Collection(), path.ID(), string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Update merges top-level fields into an existing document.
func (s *SQLiteStore) Update(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	// json_patch replaces top-level keys present in the patch; nested objects merge.
	result, err := s.db.ExecContext(ctx,
		`UPDATE documents SET data = json_patch(data, ?), updated_at = ? WHERE collection = ? AND id = ?`,
		string(patch), time.Now().UnixMilli(), path.Collection(), path.ID(),
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Query filters a collection with json_extract predicates.
func (s *SQLiteStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = ?`
	args := []any{collection}
	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		op := string(f.Op)
		if f.Op == OpEq {
			op = "="
		}
		query += fmt.Sprintf(" AND json_extract(data, '$.%s') %s ?", f.Field, op)
		args = append(args, sqlValue(f.Value))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	parent := DocPath(strings.Split(collection, "/"))
	var docs []Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		fields, err := decodeFields(data)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		path := append(append(DocPath{}, parent...), id)
		docs = append(docs, Document{Path: path, Fields: fields})
	}
	return docs, rows.Err()
}

// sqlValue maps a Go filter value onto what json_extract yields.
func sqlValue(v any) any {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case fmt.Stringer:
		return t.String()
	}
	return v
}

func decodeFields(data string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}
