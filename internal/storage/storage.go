// /internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks an absent record inside a storage.Error.
var ErrNotFound = errors.New("not found")

// Error wraps every failure that comes out of a backend, so callers can tell
// storage problems apart from everything else with errors.As.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "storage " + e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorageError reports whether err came from a storage backend.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// WordRecord is one observed word together with the message it appeared in.
type WordRecord struct {
	ChatID    string    `json:"chat_id"`
	Word      string    `json:"word"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageRecord is one learned chat message.
type MessageRecord struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Mood is the persisted karma of a chat.
type Mood struct {
	ChatID    string    `json:"chat_id"`
	Value     int       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence boundary of the engine. Word and message tables
// are append-only and read newest-first with a bounded limit.
type Store interface {
	FetchRecentWords(ctx context.Context, limit int) ([]WordRecord, error)
	FetchRecentPhrases(ctx context.Context, chatID string, limit int) ([]string, error)
	SaveMessage(ctx context.Context, msg MessageRecord, words []WordRecord) error
	UpsertMood(ctx context.Context, chatID string, value int, at time.Time) error
	// ReadMood reports found=false when the chat has no mood yet.
	ReadMood(ctx context.Context, chatID string) (value int, found bool, err error)
	// ResetChat removes every chat-scoped record.
	ResetChat(ctx context.Context, chatID string) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats summarizes what a backend holds.
type Stats struct {
	Words    int `json:"words"`
	Messages int `json:"messages"`
	Moods    int `json:"moods"`
}

// Open returns the backend named by driver ("sqlite" or "json") at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(path)
	case "json":
		return NewJSON(path)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
