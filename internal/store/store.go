package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists per-platform session cookies. Feed content is never stored.
type Store struct {
	db *sql.DB
}

// Session summarizes the stored credentials of one platform.
type Session struct {
	Platform      string
	Cookies       int
	ImportedAt    time.Time
	InvalidatedAt time.Time // zero while valid
	Reason        string
}

// Valid reports whether the session has cookies and was not invalidated.
func (s Session) Valid() bool {
	return s.Cookies > 0 && s.InvalidatedAt.IsZero()
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveCookies replaces the cookie set of platform and clears any invalidation.
func (s *Store) SaveCookies(ctx context.Context, platform string, cookies map[string]string, now time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(platform) == "" {
		return errors.New("platform is required")
	}
	if len(cookies) == 0 {
		return errors.New("at least one cookie is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM cookies WHERE platform = ?", platform); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear cookies: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cookies(platform, name, value, updated_at) VALUES(?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for name, value := range cookies {
		if _, err := stmt.ExecContext(ctx, platform, name, value, now.Unix()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert cookie %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions(platform, imported_at, invalidated_at, reason)
		VALUES(?, ?, NULL, NULL)
		ON CONFLICT(platform) DO UPDATE SET
			imported_at = excluded.imported_at,
			invalidated_at = NULL,
			reason = NULL`, platform, now.Unix()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert session: %w", err)
	}

	return tx.Commit()
}

// Cookies returns the cookies of platform. An invalidated session yields no
// cookies, so callers treat it the same as a missing one.
func (s *Store) Cookies(ctx context.Context, platform string) (map[string]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.value
		FROM cookies c
		LEFT JOIN sessions s ON s.platform = c.platform
		WHERE c.platform = ? AND s.invalidated_at IS NULL
		ORDER BY c.name`, platform)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cookies := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		cookies[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cookies: %w", err)
	}
	return cookies, nil
}

// HasSession reports whether platform has valid stored cookies.
func (s *Store) HasSession(ctx context.Context, platform string) (bool, error) {
	cookies, err := s.Cookies(ctx, platform)
	if err != nil {
		return false, err
	}
	return len(cookies) > 0, nil
}

// Invalidate marks the session of platform as unusable, keeping its cookies
// for inspection until the next import.
func (s *Store) Invalidate(ctx context.Context, platform, reason string, now time.Time) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET invalidated_at = ?, reason = ?
		WHERE platform = ?`, now.Unix(), reason, platform)
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// Clear deletes the cookies and session record of platform.
func (s *Store) Clear(ctx context.Context, platform string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM cookies WHERE platform = ?", platform)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete cookies: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE platform = ?", platform); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return res.RowsAffected()
}

// Sessions lists every stored session ordered by platform.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.platform, s.imported_at, s.invalidated_at, s.reason,
			(SELECT COUNT(*) FROM cookies c WHERE c.platform = s.platform)
		FROM sessions s
		ORDER BY s.platform`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var (
			sess        Session
			importedAt  int64
			invalidated sql.NullInt64
			reason      sql.NullString
		)
		if err := rows.Scan(&sess.Platform, &importedAt, &invalidated, &reason, &sess.Cookies); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.ImportedAt = time.Unix(importedAt, 0).UTC()
		if invalidated.Valid {
			sess.InvalidatedAt = time.Unix(invalidated.Int64, 0).UTC()
		}
		sess.Reason = reason.String
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Size returns the database file size in bytes as reported by sqlite.
func (s *Store) Size(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page size: %w", err)
	}
	return pages * pageSize, nil
}
