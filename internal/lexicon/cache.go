package lexicon

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/keshon/moodbot/internal/storage"
)

// DefaultFetchLimit is how many recent word records a rebuild reads.
const DefaultFetchLimit = 5000

// State is the freshness of the cache.
type State int

const (
	Stale State = iota
	Fresh
)

func (s State) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

// WordSource is the part of the Store Adapter the cache reads from.
type WordSource interface {
	FetchRecentWords(ctx context.Context, limit int) ([]storage.WordRecord, error)
}

// Scorer rates one cached word against the stems of an input text.
type Scorer interface {
	Score(word string, contexts []string, stems StemSet) float64
}

// Entry is everything the cache knows about one word.
type Entry struct {
	Word       string
	Stem       string
	Contexts   []string
	Successors []string
}

// snapshot is an immutable build of the cache. Readers only ever see a
// complete snapshot; rebuilds publish a new one with a pointer swap.
type snapshot struct {
	entries map[string]*Entry
	words   []string
	builtAt time.Time
}

// stateOf is the Fresh/Stale transition function. A missing snapshot or
// one older than ttl is stale; an empty snapshot from a successful fetch is
// fresh until it expires.
func stateOf(snap *snapshot, now time.Time, ttl time.Duration) State {
	if snap == nil || now.Sub(snap.builtAt) >= ttl {
		return Stale
	}
	return Fresh
}

// Options configure a Cache.
type Options struct {
	Limit  int
	TTL    time.Duration
	Now    func() time.Time
	Logger zerolog.Logger
}

// Cache is the process-wide index of learned words.
type Cache struct {
	source WordSource
	limit  int
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger

	snap    atomic.Pointer[snapshot]
	group   singleflight.Group
	fetches atomic.Int64
}

// NewCache returns an empty, stale cache reading from source.
func NewCache(source WordSource, opts Options) *Cache {
	if opts.Limit <= 0 {
		opts.Limit = DefaultFetchLimit
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		source: source,
		limit:  opts.Limit,
		ttl:    opts.TTL,
		now:    opts.Now,
		log:    opts.Logger,
	}
}

// State returns the current freshness.
func (c *Cache) State() State {
	return stateOf(c.snap.Load(), c.now(), c.ttl)
}

// Fetches returns how many times the cache has read from its source.
func (c *Cache) Fetches() int64 {
	return c.fetches.Load()
}

// Invalidate marks the cache stale without dropping the current entries.
func (c *Cache) Invalidate() {
	for {
		old := c.snap.Load()
		if old == nil {
			return
		}
		expired := *old
		expired.builtAt = time.Time{}
		// a rebuild may have published in between; expire that one instead
		if c.snap.CompareAndSwap(old, &expired) {
			return
		}
	}
}

// RefreshIfStale rebuilds the cache when it is stale. Concurrent callers
// share one fetch, which keeps running when the caller that started it is
// cancelled. On a fetch error the previous snapshot stays in place.
func (c *Cache) RefreshIfStale(ctx context.Context) error {
	if c.State() == Fresh {
		return nil
	}
	_, err, _ := c.group.Do("rebuild", func() (any, error) {
		// a rebuild that finished while we queued already did the work
		if c.State() == Fresh {
			return nil, nil
		}
		return nil, c.rebuild(context.WithoutCancel(ctx))
	})
	return err
}

func (c *Cache) rebuild(ctx context.Context) error {
	c.fetches.Add(1)
	started := c.now()

	records, err := c.source.FetchRecentWords(ctx, c.limit)
	if err != nil {
		c.log.Warn().Err(err).Msg("lexical cache rebuild failed, keeping previous entries")
		return fmt.Errorf("rebuild lexical cache: %w", err)
	}

	snap := build(records)
	snap.builtAt = c.now()
	c.snap.Store(snap)

	c.log.Debug().
		Int("records", len(records)).
		Int("words", len(snap.words)).
		Dur("took", snap.builtAt.Sub(started)).
		Msg("lexical cache rebuilt")
	return nil
}

// build indexes records into a fresh snapshot. Contexts and successors are
// sets, kept sorted so that nothing depends on fetch order.
func build(records []storage.WordRecord) *snapshot {
	type acc struct {
		contexts   map[string]struct{}
		successors map[string]struct{}
	}
	index := make(map[string]*acc)

	for _, rec := range records {
		word := Normalize(rec.Word)
		if word == "" {
			continue
		}
		a := index[word]
		if a == nil {
			a = &acc{contexts: map[string]struct{}{}, successors: map[string]struct{}{}}
			index[word] = a
		}
		if rec.Context == "" {
			continue
		}
		a.contexts[rec.Context] = struct{}{}

		toks := Tokenize(rec.Context)
		for i := 0; i+1 < len(toks); i++ {
			if toks[i] == word && toks[i+1] != word {
				a.successors[toks[i+1]] = struct{}{}
			}
		}
	}

	snap := &snapshot{entries: make(map[string]*Entry, len(index))}
	for word, a := range index {
		snap.entries[word] = &Entry{
			Word:       word,
			Stem:       Stem(word),
			Contexts:   sortedKeys(a.contexts),
			Successors: sortedKeys(a.successors),
		}
		snap.words = append(snap.words, word)
	}
	sort.Strings(snap.words)
	return snap
}

// Normalize turns a raw stored word into its cache key: the first token of
// the lowercased text, or "" when nothing is left.
func Normalize(word string) string {
	toks := Tokenize(word)
	if len(toks) == 0 {
		return ""
	}
	return toks[0]
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached words.
func (c *Cache) Len() int {
	if snap := c.snap.Load(); snap != nil {
		return len(snap.words)
	}
	return 0
}

// Words returns every cached word, sorted.
func (c *Cache) Words() []string {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}
	return append([]string(nil), snap.words...)
}

// Lookup returns the entry for word, if cached.
func (c *Cache) Lookup(word string) (Entry, bool) {
	snap := c.snap.Load()
	if snap == nil {
		return Entry{}, false
	}
	e, ok := snap.entries[word]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Successors returns the words observed right after word.
func (c *Cache) Successors(word string) []string {
	e, ok := c.Lookup(word)
	if !ok {
		return nil
	}
	return append([]string(nil), e.Successors...)
}

// RelevantWords scores every cached word against inputText. Nothing is
// filtered out; negative scores are left for the caller to drop.
func (c *Cache) RelevantWords(inputText string, scorer Scorer) map[string]float64 {
	snap := c.snap.Load()
	if snap == nil {
		return map[string]float64{}
	}
	stems := Stems(inputText)
	out := make(map[string]float64, len(snap.words))
	for _, word := range snap.words {
		e := snap.entries[word]
		out[word] = scorer.Score(word, e.Contexts, stems)
	}
	return out
}
