// Package chance provides the single randomness source shared by sentence
// assembly, tone coin flips and fallback picks.
package chance

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of *rand.Rand the engine needs.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Locked wraps a *rand.Rand so it can be shared across goroutines.
type Locked struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a source seeded from the clock.
func New() *Locked {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a source with a fixed seed. Tests use it to pin output.
func NewSeeded(seed int64) *Locked {
	return &Locked{rnd: rand.New(rand.NewSource(seed))}
}

func (l *Locked) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

// Percent reports true with probability p/100. p is clamped to [0,100].
func Percent(src Source, p int) bool {
	if p <= 0 {
		return false
	}
	if p >= 100 {
		return true
	}
	return src.Intn(100) < p
}

// Pick returns a uniformly chosen element of items. items must be non-empty.
func Pick[T any](src Source, items []T) T {
	return items[src.Intn(len(items))]
}

// Shuffle permutes items in place (Fisher-Yates).
func Shuffle[T any](src Source, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
