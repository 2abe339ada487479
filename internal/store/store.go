// Package store handles SQLite persistence for the keyer journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/cwkeyer/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for keying sessions and settings commits.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL DEFAULT '',
			wpm INTEGER NOT NULL,
			chars INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS session_text (
			session_id INTEGER PRIMARY KEY,
			text TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_char_counts (
			session_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (session_id, char)
		);`,
		`CREATE TABLE IF NOT EXISTS settings_commits (
			id INTEGER PRIMARY KEY,
			committed_at TEXT NOT NULL,
			document TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartSession opens a session row and returns its id.
func (s *Store) StartSession(ctx context.Context, startedAt time.Time, wpm int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (started_at, wpm) VALUES (?, ?)`,
		startedAt.UTC().Format(timeLayout), wpm)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishSession closes a session with the text that was echoed during it.
func (s *Store) FinishSession(ctx context.Context, id int64, endedAt time.Time, wpm int, text string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, wpm = ?, chars = ? WHERE id = ?`,
		endedAt.UTC().Format(timeLayout), wpm, len([]rune(text)), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: no session %d", id)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_text (session_id, text) VALUES (?, ?)`, id, text); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM session_char_counts WHERE session_id = ?`, id); err != nil {
		return err
	}

	counts := countChars(text)
	if len(counts) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_char_counts (session_id, char, count) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for ch, count := range counts {
			if _, err := stmt.ExecContext(ctx, id, ch, count); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// RecordCommit stores a copy of a saved settings document.
func (s *Store) RecordCommit(ctx context.Context, at time.Time, document []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings_commits (committed_at, document) VALUES (?, ?)`,
		at.UTC().Format(timeLayout), string(document))
	return err
}

// ListSessions returns sessions in start order, filtered and limited to the
// most recent filter.Last when set.
func (s *Store) ListSessions(ctx context.Context, filter model.JournalFilter) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Since != nil {
		clauses = append(clauses, "s.started_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, wpm, chars, text FROM (
			SELECT s.id, s.started_at, s.ended_at, s.wpm, s.chars, COALESCE(t.text, '') AS text
			FROM sessions s
			LEFT JOIN session_text t ON t.session_id = s.id
			WHERE %s
			ORDER BY s.started_at DESC, s.id DESC
			LIMIT ?
		) ORDER BY started_at ASC, id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.WPM, &rec.Chars, &rec.Text); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, err
		}
		rec.StartedAt = parsed
		if endedAt != "" {
			parsed, err := time.Parse(timeLayout, endedAt)
			if err != nil {
				return nil, err
			}
			rec.EndedAt = parsed
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListCharCounts sums per-character counts across sessions.
func (s *Store) ListCharCounts(ctx context.Context, sessionIDs []int64) ([]model.CharCount, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT char, SUM(count) AS count
		FROM session_char_counts
		WHERE session_id IN (%s)
		GROUP BY char
		ORDER BY count DESC, char ASC`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CharCount
	for rows.Next() {
		var cc model.CharCount
		if err := rows.Scan(&cc.Char, &cc.Count); err != nil {
			return nil, err
		}
		result = append(result, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListCommits returns the most recent settings commits, newest first.
func (s *Store) ListCommits(ctx context.Context, limit int) ([]model.CommitRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, committed_at, document FROM settings_commits ORDER BY committed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var commits []model.CommitRecord
	for rows.Next() {
		var rec model.CommitRecord
		var at string
		if err := rows.Scan(&rec.ID, &at, &rec.Document); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, err
		}
		rec.CommittedAt = parsed
		commits = append(commits, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return commits, nil
}

// countChars counts non-space characters.
func countChars(text string) map[string]int {
	counts := map[string]int{}
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			continue
		}
		counts[string(r)]++
	}
	return counts
}
