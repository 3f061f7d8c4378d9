package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams are appended to the database path. WAL lets the API read while
// an import writes; the busy timeout makes the writer wait instead of failing.
const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

const openTimeout = 10 * time.Second

// Storage is the SQLite-backed Repository for transactions and duplicate checks.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Repository = (*Storage)(nil)

// NewStorage opens (creating if needed) the database at dbPath and applies
// pending migrations. A nil logger uses slog.Default().
func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	return Open(ctx, dbPath, logger)
}

// Open is NewStorage with a caller-supplied context for the connection check
// and migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}

	s := &Storage{db: db, logger: logger}
	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return "file:" + dbPath + sep + sqliteParams
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}
