package karma

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	moods    map[string]int
	readErr  error
	writeErr error
	writes   int
	block    map[string]chan struct{}
}

func newMemStore() *memStore {
	return &memStore{moods: map[string]int{}, block: map[string]chan struct{}{}}
}

func (m *memStore) ReadMood(_ context.Context, chatID string) (int, bool, error) {
	m.mu.Lock()
	ch := m.block[chatID]
	m.mu.Unlock()
	if ch != nil {
		<-ch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return 0, false, m.readErr
	}
	v, ok := m.moods[chatID]
	return v, ok, nil
}

func (m *memStore) UpsertMood(_ context.Context, chatID string, value int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.moods[chatID] = value
	return nil
}

func (m *memStore) ResetChat(_ context.Context, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.moods, chatID)
	return nil
}

func TestUpdateStaysInRange(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newMemStore())
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		delta := rnd.Intn(6001) - 3000
		res, err := e.Update(ctx, "chat", delta)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Value, Min)
		assert.LessOrEqual(t, res.Value, Max)
	}

	for _, tc := range []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{"max int from positive", 5, math.MaxInt, Max},
		{"max int from bottom", Min, math.MaxInt, Max},
		{"min int from negative", -5, math.MinInt, Min},
		{"min int from top", Max, math.MinInt, Min},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, e.Set(ctx, "huge", tc.start))
			res, err := e.Update(ctx, "huge", tc.delta)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Value)
		})
	}
}

func TestBandsAreFlat(t *testing.T) {
	for v := Min; v <= Max; v++ {
		same := Floor(v)
		assert.Equal(t, BandFor(same), BandFor(v), "value %d", v)
	}
	assert.Equal(t, -600, BandFor(-550).Floor)
	assert.Equal(t, -100, BandFor(-1).Floor)
	assert.Equal(t, 0, BandFor(99).Floor)
	assert.Equal(t, 1000, BandFor(1000).Floor)
	assert.Equal(t, -1000, BandFor(-5000).Floor)
	assert.Equal(t, 1000, BandFor(5000).Floor)
}

func TestBandTableCoversRange(t *testing.T) {
	all := DefaultBands().All()
	require.Len(t, all, 21)
	prev := Hostile
	for i, b := range all {
		assert.Equal(t, Min+i*BandWidth, b.Floor)
		assert.NotEmpty(t, b.Name)
		assert.NotEmpty(t, b.Traits)
		assert.GreaterOrEqual(t, b.Tone, prev)
		prev = b.Tone
	}
	assert.Equal(t, Hostile, all[0].Tone)
	assert.Equal(t, Saintly, all[len(all)-1].Tone)
}

func TestUpdateScenarioIntoToxic(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newMemStore())

	res, err := e.Update(ctx, "chat", -550)
	require.NoError(t, err)
	assert.Equal(t, -550, res.Value)
	assert.Equal(t, 0, res.Previous)
	assert.True(t, res.Changed)
	assert.Equal(t, -600, res.Band.Floor)
	assert.Equal(t, Toxic, res.Band.Tone)

	res, err = e.Update(ctx, "chat", -20)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	assert.Equal(t, -570, e.Get(ctx, "chat"))
}

func TestUpdateClamps(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newMemStore())

	res, err := e.Update(ctx, "chat", 5000)
	require.NoError(t, err)
	assert.Equal(t, Max, res.Value)
	assert.Equal(t, Max, e.Get(ctx, "chat"))

	res, err = e.Update(ctx, "chat", -99999)
	require.NoError(t, err)
	assert.Equal(t, Min, res.Value)
}

func TestSetRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := NewEngine(store)
	require.NoError(t, e.Set(ctx, "chat", 300))

	err := e.Set(ctx, "chat", 1500)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, e.Set(ctx, "chat", -1001), ErrOutOfRange)
	assert.Equal(t, 300, e.Get(ctx, "chat"))
	assert.Equal(t, 1, store.writes)
}

func TestGetDefaultsAndReadFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	e := NewEngine(store)
	assert.Equal(t, 0, e.Get(ctx, "new"))
	assert.Equal(t, 0, store.writes)

	store.moods["x"] = 400
	store.readErr = errors.New("disk gone")
	assert.Equal(t, 0, e.Get(ctx, "x"))
}

func TestWriteErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	boom := errors.New("disk full")
	store.writeErr = boom
	e := NewEngine(store)

	_, err := e.Update(ctx, "chat", 10)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, e.Set(ctx, "chat", 10), boom)

	store.writeErr = nil
	store.readErr = boom
	_, err = e.Update(ctx, "chat", 10)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.writes)
}

func TestConcurrentUpdatesSameChat(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newMemStore())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Update(ctx, "chat", 3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 300, e.Get(ctx, "chat"))
}

func TestChatsDoNotBlockEachOther(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	release := make(chan struct{})
	store.block["slow"] = release
	e := NewEngine(store)

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		_, _ = e.Update(ctx, "slow", 1)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := e.Update(ctx, "fast", 1)
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("update of an unrelated chat was blocked")
	}
	close(release)
	<-slowDone
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(newMemStore())
	_, err := e.Update(ctx, "chat", 200)
	require.NoError(t, err)
	require.NoError(t, e.Reset(ctx, "chat"))
	assert.Equal(t, 0, e.Get(ctx, "chat"))
}

func TestLoadBands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- floor: -1000
  name: Хтонь
  traits: [ужас]
- floor: 0
  name: Норм
`), 0o644))

	b, err := LoadBands(path)
	require.NoError(t, err)
	assert.Equal(t, "Хтонь", b.For(-950).Name)
	assert.Equal(t, []string{"ужас"}, b.For(-950).Traits)
	assert.Equal(t, "Норм", b.For(50).Name)
	assert.Equal(t, BandFor(50).Traits, b.For(50).Traits)
	assert.Equal(t, Hostile, b.For(-950).Tone)

	e := NewEngine(newMemStore(), WithBands(b))
	assert.Equal(t, "Хтонь", e.BandFor(-1000).Name)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- floor: 50\n  name: x\n"), 0o644))
	_, err = LoadBands(bad)
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("- floor: 0\n- floor: 0\n"), 0o644))
	_, err = LoadBands(dup)
	assert.Error(t, err)
}
