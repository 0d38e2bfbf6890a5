package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

// SQLiteStore keeps entries in an extraction_cache table.
// Open the handle with repository.OpenSQLite, which registers the modernc driver.
type SQLiteStore struct {
	db *sql.DB
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS extraction_cache (
	key        TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);`

// tables created before the source column existed
const addSourceColumn = `ALTER TABLE extraction_cache ADD COLUMN source TEXT NOT NULL DEFAULT ''`

func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("sqlite store: nil db")
	}
	if _, err := db.ExecContext(ctx, createCacheTable); err != nil {
		return nil, fmt.Errorf("create extraction_cache: %w", err)
	}
	if _, err := db.ExecContext(ctx, addSourceColumn); err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return nil, fmt.Errorf("migrate extraction_cache: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	var text, source string
	err := s.db.QueryRowContext(ctx, `SELECT text, source FROM extraction_cache WHERE key = ?`, key).Scan(&text, &source)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return Entry{Text: text, Source: constants.Source(source)}, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extraction_cache (key, text, source, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET text = excluded.text, source = excluded.source, created_at = excluded.created_at`,
		key, e.Text, string(e.Source), time.Now().UnixMilli())
	return err
}
