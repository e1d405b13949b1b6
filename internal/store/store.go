// Package store implements the persistent, crash-consistent storage for the
// cache table and the search-count leaderboard table, backed by an embedded
// sqlite database accessed through database/sql and sqlx.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" //nolint:revive // driver registration
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	provider TEXT NOT NULL,
	provider_base_url TEXT NOT NULL,
	username TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	options_hash TEXT NOT NULL,
	payload_json TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	cached_until INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (provider, provider_base_url, username, schema_version, options_hash)
);

CREATE TABLE IF NOT EXISTS topsearch (
	provider TEXT NOT NULL,
	username TEXT NOT NULL,
	hit INTEGER NOT NULL,
	avatar_url TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (provider, username)
);

CREATE INDEX IF NOT EXISTS idx_topsearch_hit ON topsearch (provider, hit DESC);
CREATE INDEX IF NOT EXISTS idx_topsearch_updated ON topsearch (provider, updated_at DESC);
`

// Store is the embedded relational store for both tables. Sqlite is a
// single-writer database, so writes are serialized behind writeMu while
// reads run unguarded through the pool (database/sql itself is
// goroutine-safe; the mutex exists only to avoid SQLITE_BUSY under
// concurrent writers).
type Store struct {
	db      *sqlx.DB
	logger  *slog.Logger
	writeMu sync.Mutex
}

// Key identifies a CacheEntry.
type Key struct {
	Provider        string
	ProviderBaseURL string
	Handle          string
	SchemaVersion   string
	OptionsHash     string
}

// Entry is one row of the cache table, with the payload already normalized
// out of the timing metadata per §3 invariant 6 — the caller re-attaches
// cachedAt/cachedUntil on every read.
type Entry struct {
	Payload     string
	CachedAt    int64
	CachedUntil int64
	UpdatedAt   int64
}

// LeaderboardRow is one row of the topsearch table.
type LeaderboardRow struct {
	Provider  string `db:"provider"`
	Username  string `db:"username"`
	Hit       int64  `db:"hit"`
	AvatarURL *string `db:"avatar_url"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// Open creates or attaches to the sqlite database at path (or an in-memory
// database for the sentinel ":memory:") and runs idempotent schema
// creation.
func Open(path string, logger *slog.Logger) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" {
		dsn += "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite is single-writer; keep the pool honest about it
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/")
}

// CacheGet normalizes the key and looks up a row regardless of freshness —
// the caller checks CachedUntil.
func (s *Store) CacheGet(ctx context.Context, key Key) (*Entry, bool) {
	key.Handle = normalizeHandle(key.Handle)
	key.ProviderBaseURL = normalizeBaseURL(key.ProviderBaseURL)

	var row struct {
		PayloadJSON string `db:"payload_json"`
		CachedAt    int64  `db:"cached_at"`
		CachedUntil int64  `db:"cached_until"`
		UpdatedAt   int64  `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT payload_json, cached_at, cached_until, updated_at
		FROM cache
		WHERE provider = ? AND provider_base_url = ? AND username = ? AND schema_version = ? AND options_hash = ?`,
		key.Provider, key.ProviderBaseURL, key.Handle, key.SchemaVersion, key.OptionsHash)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("cache read failed", "handle", key.Handle, "error", err)
		}
		return nil, false
	}

	return &Entry{
		Payload:     row.PayloadJSON,
		CachedAt:    row.CachedAt,
		CachedUntil: row.CachedUntil,
		UpdatedAt:   row.UpdatedAt,
	}, true
}

// CacheUpsert writes or overwrites the row for key with a fresh TTL window,
// and returns the stored timestamps so the caller needs no second read.
func (s *Store) CacheUpsert(ctx context.Context, key Key, payload string, ttl time.Duration) (*Entry, error) {
	key.Handle = normalizeHandle(key.Handle)
	key.ProviderBaseURL = normalizeBaseURL(key.ProviderBaseURL)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().Unix()
	until := now + int64(ttl.Seconds())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache (provider, provider_base_url, username, schema_version, options_hash, payload_json, cached_at, cached_until, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_base_url, username, schema_version, options_hash)
		DO UPDATE SET payload_json = excluded.payload_json, cached_at = excluded.cached_at, cached_until = excluded.cached_until, updated_at = excluded.updated_at`,
		key.Provider, key.ProviderBaseURL, key.Handle, key.SchemaVersion, key.OptionsHash, payload, now, until, now)
	if err != nil {
		return nil, fmt.Errorf("cache upsert: %w", err)
	}

	return &Entry{Payload: payload, CachedAt: now, CachedUntil: until, UpdatedAt: now}, nil
}

// LeaderboardUpsert increments hit for (provider, handle), creating the row
// on first sight. avatarURL overwrites the stored value only when non-empty.
// Write failures are logged and swallowed: a failed leaderboard upsert must
// never turn a successful search into a failed response.
func (s *Store) LeaderboardUpsert(ctx context.Context, provider, handle, avatarURL string) {
	handle = normalizeHandle(handle)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().Unix()
	var avatar any
	if avatarURL != "" {
		avatar = avatarURL
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topsearch (provider, username, hit, avatar_url, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT (provider, username) DO UPDATE SET
			hit = topsearch.hit + 1,
			updated_at = excluded.updated_at,
			avatar_url = CASE WHEN excluded.avatar_url IS NOT NULL THEN excluded.avatar_url ELSE topsearch.avatar_url END`,
		provider, handle, avatar, now, now)
	if err != nil {
		s.logger.Warn("leaderboard upsert failed", "provider", provider, "handle", handle, "error", err)
	}
}

// LeaderboardPage returns rows ordered hit DESC, updated_at DESC, username
// ASC, plus the total matching row count, without a full scan (the
// idx_topsearch_hit index covers the ordering prefix).
func (s *Store) LeaderboardPage(ctx context.Context, provider string, limit, offset int) ([]LeaderboardRow, int, bool) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM topsearch WHERE provider = ?`, provider); err != nil {
		s.logger.Warn("leaderboard count failed", "provider", provider, "error", err)
		return nil, 0, false
	}

	var rows []LeaderboardRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT provider, username, hit, avatar_url, created_at, updated_at
		FROM topsearch
		WHERE provider = ?
		ORDER BY hit DESC, updated_at DESC, username ASC
		LIMIT ? OFFSET ?`,
		provider, limit, offset)
	if err != nil {
		s.logger.Warn("leaderboard page failed", "provider", provider, "error", err)
		return nil, 0, false
	}

	return rows, total, true
}
