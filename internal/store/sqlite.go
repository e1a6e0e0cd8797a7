package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hishab/internal/logging"
	"hishab/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	module         TEXT NOT NULL,
	raw_text       TEXT NOT NULL,
	parsed_payload TEXT NOT NULL DEFAULT '',
	model_name     TEXT NOT NULL DEFAULT '',
	confidence     REAL,
	status         TEXT NOT NULL,
	error_message  TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_user_created ON audit_records(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS parse_cache (
	fingerprint TEXT PRIMARY KEY,
	payload     TEXT NOT NULL,
	expires_at  TIMESTAMP NOT NULL
);
`

// SQLiteStore persists audit records and cached parse results in one SQLite
// database. It satisfies both storage interfaces of the parsing pipeline.
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger logging.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. ttl governs cache entry lifetime.
func NewSQLiteStore(path string, ttl time.Duration, logger logging.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = logging.GetLogger()
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	logger.WithField("path", path).Debug("sqlite store opened")
	return &SQLiteStore{db: db, ttl: ttl, logger: logger}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append inserts a new audit record.
func (s *SQLiteStore) Append(ctx context.Context, record models.AuditRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(id, user_id, module, raw_text, parsed_payload, model_name, confidence, status, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, string(record.Module), record.RawText,
		record.ParsedPayload, record.ModelName, record.Confidence,
		string(record.Status), record.ErrorMessage, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// UpdateStatus applies a lifecycle transition, enforcing the same rules as
// AuditRecord.CanTransitionTo.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, next models.AuditStatus) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !record.CanTransitionTo(next) {
		return fmt.Errorf("audit record %s: illegal transition %s -> %s", id, record.Status, next)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE audit_records SET status = ? WHERE id = ?`, string(next), id)
	if err != nil {
		return fmt.Errorf("updating audit status: %w", err)
	}
	return nil
}

// Get returns one audit record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (models.AuditRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, module, raw_text, parsed_payload, model_name, confidence, status, error_message, created_at
		FROM audit_records WHERE id = ?`, id)

	record, err := scanAuditRecord(row)
	if err == sql.ErrNoRows {
		return models.AuditRecord{}, fmt.Errorf("audit record %s not found", id)
	}
	if err != nil {
		return models.AuditRecord{}, fmt.Errorf("reading audit record: %w", err)
	}
	return record, nil
}

// List returns audit records newest-first, optionally filtered by user.
// A limit of zero means no limit.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	query := `
		SELECT id, user_id, module, raw_text, parsed_payload, model_name, confidence, status, error_message, created_at
		FROM audit_records`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer rows.Close()

	var out []models.AuditRecord
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuditRecord(row rowScanner) (models.AuditRecord, error) {
	var (
		record         models.AuditRecord
		module, status string
	)
	err := row.Scan(
		&record.ID, &record.UserID, &module, &record.RawText,
		&record.ParsedPayload, &record.ModelName, &record.Confidence,
		&status, &record.ErrorMessage, &record.CreatedAt,
	)
	if err != nil {
		return models.AuditRecord{}, err
	}
	record.Module = models.Domain(module)
	record.Status = models.AuditStatus(status)
	return record, nil
}

// Cache exposes the parse_cache table under the pipeline's cache interface.
func (s *SQLiteStore) Cache() *SQLiteCache { return &SQLiteCache{store: s} }

// SQLiteCache adapts the parse_cache table to the cache method set.
type SQLiteCache struct {
	store *SQLiteStore
}

func (c *SQLiteCache) Get(ctx context.Context, fingerprint string) (models.ParseResult, bool, error) {
	return c.store.getCached(ctx, fingerprint)
}

func (c *SQLiteCache) Put(ctx context.Context, fingerprint string, result models.ParseResult) error {
	return c.store.putCached(ctx, fingerprint, result)
}

// getCached returns the cached parse result for the fingerprint if still
// fresh. Expired rows are removed opportunistically.
func (s *SQLiteStore) getCached(ctx context.Context, fingerprint string) (models.ParseResult, bool, error) {
	var (
		payload   string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM parse_cache WHERE fingerprint = ?`, fingerprint).
		Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return models.ParseResult{}, false, nil
	}
	if err != nil {
		return models.ParseResult{}, false, fmt.Errorf("reading cache: %w", err)
	}

	if time.Now().After(expiresAt) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM parse_cache WHERE fingerprint = ?`, fingerprint); err != nil {
			s.logger.WithError(err).Warn("failed to evict expired cache row")
		}
		return models.ParseResult{}, false, nil
	}

	var result models.ParseResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return models.ParseResult{}, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return result, true, nil
}

// putCached stores a parse result under the fingerprint, replacing any
// previous entry.
func (s *SQLiteStore) putCached(ctx context.Context, fingerprint string, result models.ParseResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO parse_cache (fingerprint, payload, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		fingerprint, string(payload), time.Now().Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}
