package dedup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository stores processed message records in a single sqlite file
// at a fixed path, so dedup state survives process restarts.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database file and initializes
// the schema. Initialization is idempotent: an existing table is left
// untouched.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageError{Op: "open", Err: err}
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS aprs_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
		timestamp DATETIME NOT NULL,
		callsign VARCHAR(16) NOT NULL,
		message VARCHAR(256) NOT NULL,
		aprs_msg_id VARCHAR(32),
		digest VARCHAR(256) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_aprs_messages_digest ON aprs_messages(digest);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return &StorageError{Op: "schema init", Err: err}
	}
	return nil
}

func (r *SQLiteRepository) Has(ctx context.Context, fingerprint string) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM aprs_messages WHERE digest = ?`, fingerprint,
	).Scan(&count)
	if err != nil {
		return false, &StorageError{Op: "lookup", Err: err}
	}
	return count > 0, nil
}

func (r *SQLiteRepository) Record(ctx context.Context, msg Message) (int64, error) {
	ackID := sql.NullString{String: msg.AckID, Valid: msg.AckID != ""}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO aprs_messages (timestamp, callsign, message, aprs_msg_id, digest)
		VALUES (?, ?, ?, ?, ?)
	`, msg.Timestamp.UTC(), msg.Sender, msg.Body, ackID, msg.Fingerprint)
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, &StorageError{Op: "insert", Err: err}
	}
	return id, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM aprs_messages`).Scan(&count)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// DB exposes the underlying handle for the health checker.
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
