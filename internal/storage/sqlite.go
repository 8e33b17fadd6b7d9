package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// SQLite implements Store on a single SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path and applies the schema.
func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrap("open", fmt.Errorf("create db dir: %w", err))
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, wrap("open", err)
	}
	// one writer keeps SQLITE_BUSY out of the upsert path
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, wrap("migrate", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		chat_id    TEXT NOT NULL,
		author_id  TEXT NOT NULL DEFAULT '',
		author     TEXT NOT NULL DEFAULT '',
		text       TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, seq DESC);

	CREATE TABLE IF NOT EXISTS words (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id    TEXT NOT NULL,
		word       TEXT NOT NULL,
		context    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_words_chat ON words(chat_id);

	CREATE TABLE IF NOT EXISTS moods (
		chat_id    TEXT PRIMARY KEY,
		value      INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) FetchRecentWords(ctx context.Context, limit int) ([]WordRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, word, context, created_at FROM words ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrap("fetch words", err)
	}
	defer rows.Close()

	var out []WordRecord
	for rows.Next() {
		var (
			w  WordRecord
			at string
		)
		if err := rows.Scan(&w.ChatID, &w.Word, &w.Context, &at); err != nil {
			return nil, wrap("fetch words", err)
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, w)
	}
	return out, wrap("fetch words", rows.Err())
}

func (s *SQLite) FetchRecentPhrases(ctx context.Context, chatID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT text FROM messages WHERE chat_id = ? ORDER BY seq DESC LIMIT ?`, chatID, limit)
	if err != nil {
		return nil, wrap("fetch phrases", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, wrap("fetch phrases", err)
		}
		out = append(out, text)
	}
	return out, wrap("fetch phrases", rows.Err())
}

func (s *SQLite) SaveMessage(ctx context.Context, msg MessageRecord, words []WordRecord) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	at := msg.CreatedAt.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("save message", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, author_id, author, text, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.AuthorID, msg.Author, msg.Text, at); err != nil {
		return wrap("save message", err)
	}

	if len(words) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO words (chat_id, word, context, created_at) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return wrap("save words", err)
		}
		defer stmt.Close()
		for _, w := range words {
			if _, err := stmt.ExecContext(ctx, msg.ChatID, w.Word, w.Context, at); err != nil {
				return wrap("save words", err)
			}
		}
	}

	return wrap("save message", tx.Commit())
}

func (s *SQLite) UpsertMood(ctx context.Context, chatID string, value int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO moods (chat_id, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		chatID, value, at.UTC().Format(time.RFC3339Nano))
	return wrap("upsert mood", err)
}

func (s *SQLite) ReadMood(ctx context.Context, chatID string) (int, bool, error) {
	var value int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM moods WHERE chat_id = ?`, chatID).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrap("read mood", err)
	}
	return value, true, nil
}

func (s *SQLite) ResetChat(ctx context.Context, chatID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("reset chat", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM moods WHERE chat_id = ?`,
		`DELETE FROM messages WHERE chat_id = ?`,
		`DELETE FROM words WHERE chat_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, chatID); err != nil {
			return wrap("reset chat", err)
		}
	}
	return wrap("reset chat", tx.Commit())
}

func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM words),
		(SELECT COUNT(*) FROM messages),
		(SELECT COUNT(*) FROM moods)`).Scan(&st.Words, &st.Messages, &st.Moods)
	return st, wrap("stats", err)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
