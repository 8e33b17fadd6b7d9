package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/keshon/moodbot/datastore"
	"github.com/oklog/ulid/v2"
)

const (
	jsonWordsKey      = "words"
	jsonWordsLimit    = 20000
	jsonMessagesLimit = 500
)

// JSON implements Store on top of the file-backed datastore. Words live in
// one global append-only list, messages and moods are keyed per chat.
type JSON struct {
	ds *datastore.DataStore
}

// NewJSON opens or creates the JSON document file at path.
func NewJSON(path string) (*JSON, error) {
	ds, err := datastore.New(path)
	if err != nil {
		return nil, wrap("open", err)
	}
	return &JSON{ds: ds}, nil
}

func messagesKey(chatID string) string { return "messages:" + chatID }
func moodKey(chatID string) string     { return "mood:" + chatID }

func (j *JSON) FetchRecentWords(_ context.Context, limit int) ([]WordRecord, error) {
	var all []WordRecord
	if _, err := j.ds.Get(jsonWordsKey, &all); err != nil {
		return nil, wrap("fetch words", err)
	}
	return newestFirst(all, limit), nil
}

func (j *JSON) FetchRecentPhrases(_ context.Context, chatID string, limit int) ([]string, error) {
	var msgs []MessageRecord
	if _, err := j.ds.Get(messagesKey(chatID), &msgs); err != nil {
		return nil, wrap("fetch phrases", err)
	}
	recent := newestFirst(msgs, limit)
	out := make([]string, 0, len(recent))
	for _, m := range recent {
		out = append(out, m.Text)
	}
	return out, nil
}

func (j *JSON) SaveMessage(_ context.Context, msg MessageRecord, words []WordRecord) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	err := j.ds.Update(messagesKey(msg.ChatID), func(raw json.RawMessage) (any, error) {
		var msgs []MessageRecord
		if err := decodeList(raw, &msgs); err != nil {
			return nil, err
		}
		return capTail(append(msgs, msg), jsonMessagesLimit), nil
	})
	if err != nil {
		return wrap("save message", err)
	}
	if len(words) == 0 {
		return nil
	}

	err = j.ds.Update(jsonWordsKey, func(raw json.RawMessage) (any, error) {
		var all []WordRecord
		if err := decodeList(raw, &all); err != nil {
			return nil, err
		}
		for _, w := range words {
			w.ChatID = msg.ChatID
			w.CreatedAt = msg.CreatedAt
			all = append(all, w)
		}
		return capTail(all, jsonWordsLimit), nil
	})
	return wrap("save words", err)
}

func (j *JSON) UpsertMood(_ context.Context, chatID string, value int, at time.Time) error {
	return wrap("upsert mood", j.ds.Put(moodKey(chatID), Mood{ChatID: chatID, Value: value, UpdatedAt: at.UTC()}))
}

func (j *JSON) ReadMood(_ context.Context, chatID string) (int, bool, error) {
	var m Mood
	found, err := j.ds.Get(moodKey(chatID), &m)
	if err != nil {
		return 0, false, wrap("read mood", err)
	}
	return m.Value, found, nil
}

func (j *JSON) ResetChat(_ context.Context, chatID string) error {
	if err := j.ds.Delete(moodKey(chatID)); err != nil {
		return wrap("reset chat", err)
	}
	if err := j.ds.Delete(messagesKey(chatID)); err != nil {
		return wrap("reset chat", err)
	}
	err := j.ds.Update(jsonWordsKey, func(raw json.RawMessage) (any, error) {
		var all []WordRecord
		if err := decodeList(raw, &all); err != nil {
			return nil, err
		}
		kept := all[:0]
		for _, w := range all {
			if w.ChatID != chatID {
				kept = append(kept, w)
			}
		}
		return kept, nil
	})
	return wrap("reset chat", err)
}

func (j *JSON) Stats(_ context.Context) (Stats, error) {
	var words []WordRecord
	if _, err := j.ds.Get(jsonWordsKey, &words); err != nil {
		return Stats{}, wrap("stats", err)
	}
	st := Stats{
		Words: len(words),
		Moods: len(j.ds.Keys("mood:")),
	}
	for _, key := range j.ds.Keys("messages:") {
		var msgs []MessageRecord
		if _, err := j.ds.Get(key, &msgs); err != nil {
			return Stats{}, wrap("stats", err)
		}
		st.Messages += len(msgs)
	}
	return st, nil
}

func (j *JSON) Close() error {
	return j.ds.Close()
}

func decodeList[T any](raw json.RawMessage, out *[]T) error {
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// capTail keeps the newest limit entries of an oldest-first list.
func capTail[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[len(items)-limit:]
	}
	return items
}

// newestFirst reverses an oldest-first list and keeps at most limit entries.
func newestFirst[T any](items []T, limit int) []T {
	n := len(items)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, 0, n)
	for i := len(items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, items[i])
	}
	return out
}
