package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := Open("sqlite", filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	js, err := Open("json", filepath.Join(dir, "test.json"))
	require.NoError(t, err)

	t.Cleanup(func() {
		sq.Close()
		js.Close()
	})
	return map[string]Store{"sqlite": sq, "json": js}
}

func words(text string, ws ...string) []WordRecord {
	out := make([]WordRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, WordRecord{Word: w, Context: text})
	}
	return out
}

func TestWordsNewestFirst(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "a", Text: "привет мир"}, words("привет мир", "привет", "мир")))
			require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "b", Text: "кот спит"}, words("кот спит", "кот", "спит")))

			got, err := s.FetchRecentWords(ctx, 3)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "спит", got[0].Word)
			assert.Equal(t, "кот", got[1].Word)
			assert.Equal(t, "мир", got[2].Word)
			assert.Equal(t, "b", got[0].ChatID)
			assert.Equal(t, "кот спит", got[0].Context)
		})
	}
}

func TestPhrasesScopedToChat(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, text := range []string{"один", "два", "три"} {
				require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "a", Text: text}, nil))
			}
			require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "b", Text: "чужое"}, nil))

			got, err := s.FetchRecentPhrases(ctx, "a", 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"три", "два"}, got)
		})
	}
}

func TestMoodUpsert(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := s.ReadMood(ctx, "a")
			require.NoError(t, err)
			assert.False(t, found)

			now := time.Now()
			require.NoError(t, s.UpsertMood(ctx, "a", -550, now))
			require.NoError(t, s.UpsertMood(ctx, "a", 120, now))

			v, found, err := s.ReadMood(ctx, "a")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 120, v)

			st, err := s.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, st.Moods)
		})
	}
}

func TestResetChat(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "a", Text: "раз два"}, words("раз два", "раз", "два")))
			require.NoError(t, s.SaveMessage(ctx, MessageRecord{ChatID: "b", Text: "три"}, words("три", "три")))
			require.NoError(t, s.UpsertMood(ctx, "a", 10, time.Now()))

			require.NoError(t, s.ResetChat(ctx, "a"))

			_, found, err := s.ReadMood(ctx, "a")
			require.NoError(t, err)
			assert.False(t, found)

			ws, err := s.FetchRecentWords(ctx, 10)
			require.NoError(t, err)
			require.Len(t, ws, 1)
			assert.Equal(t, "три", ws[0].Word)

			ph, err := s.FetchRecentPhrases(ctx, "a", 10)
			require.NoError(t, err)
			assert.Empty(t, ph)

			st, err := s.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, Stats{Words: 1, Messages: 1, Moods: 0}, st)
		})
	}
}

func TestErrorsAreDistinguishable(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Close())
			_, _, err := s.ReadMood(ctx, "a")
			require.Error(t, err)
			assert.True(t, IsStorageError(err))

			var se *Error
			require.True(t, errors.As(err, &se))
			assert.Equal(t, "read mood", se.Op)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mongo", "x")
	assert.Error(t, err)
}
