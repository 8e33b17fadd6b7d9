package datastore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Value int    `json:"value"`
	Note  string `json:"note"`
}

func newTestStore(t *testing.T) (*DataStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.json")
	cfg := DefaultConfig(path)
	cfg.AutoSaveInterval = 0
	ds, err := NewWithConfig(cfg)
	require.NoError(t, err)
	return ds, path
}

func TestPutGetPersist(t *testing.T) {
	ds, path := newTestStore(t)

	require.NoError(t, ds.Put("mood:1", doc{Value: 5, Note: "a"}))

	var got doc
	ok, err := ds.Get("mood:1", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, got.Value)

	require.NoError(t, ds.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	got = doc{}
	ok, err = reopened.Get("mood:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, doc{Value: 5, Note: "a"}, got)
}

func TestGetMissing(t *testing.T) {
	ds, _ := newTestStore(t)
	defer ds.Close()

	var got doc
	ok, err := ds.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	ds, _ := newTestStore(t)
	defer ds.Close()

	inc := func(raw json.RawMessage) (any, error) {
		var d doc
		if raw != nil {
			if err := json.Unmarshal(raw, &d); err != nil {
				return nil, err
			}
		}
		d.Value++
		return d, nil
	}
	require.NoError(t, ds.Update("k", inc))
	require.NoError(t, ds.Update("k", inc))

	var got doc
	_, err := ds.Get("k", &got)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Value)

	require.NoError(t, ds.Update("k", func(json.RawMessage) (any, error) { return nil, nil }))
	ok, _ := ds.Get("k", &got)
	assert.False(t, ok)
}

func TestKeysAndDelete(t *testing.T) {
	ds, _ := newTestStore(t)
	defer ds.Close()

	require.NoError(t, ds.Put("chat:2", 1))
	require.NoError(t, ds.Put("chat:1", 1))
	require.NoError(t, ds.Put("other", 1))
	assert.Equal(t, []string{"chat:1", "chat:2"}, ds.Keys("chat:"))

	require.NoError(t, ds.Delete("chat:1"))
	assert.Equal(t, []string{"chat:2"}, ds.Keys("chat:"))
}

func TestClosed(t *testing.T) {
	ds, _ := newTestStore(t)
	require.NoError(t, ds.Close())
	assert.ErrorIs(t, ds.Put("k", 1), ErrClosed)
	assert.ErrorIs(t, ds.SaveToFile(), ErrClosed)
	assert.NoError(t, ds.Close())
}

func TestBackupsRotate(t *testing.T) {
	ds, path := newTestStore(t)
	ds.config.BackupCount = 2
	defer ds.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, ds.Put("k", i))
		require.NoError(t, ds.SaveToFile())
		time.Sleep(5 * time.Millisecond)
	}

	matches, err := filepath.Glob(path + ".backup.*")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
