// Package karma owns the per-chat mood value and maps it to tone bands.
package karma

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Bounds of every mood value.
const (
	Min = -1000
	Max = 1000
)

// ErrOutOfRange rejects an administrative set outside [Min, Max].
var ErrOutOfRange = errors.New("mood value out of range")

// MoodStore is the persistence the engine needs.
type MoodStore interface {
	ReadMood(ctx context.Context, chatID string) (int, bool, error)
	UpsertMood(ctx context.Context, chatID string, value int, at time.Time) error
	ResetChat(ctx context.Context, chatID string) error
}

// Result describes one applied update.
type Result struct {
	Value    int
	Previous int
	// Changed is true when the update moved the value into another band.
	Changed bool
	Band    Band
}

// Engine is the tone state machine. Updates to one chat are serialized;
// different chats never wait on each other.
type Engine struct {
	store MoodStore
	bands *Bands
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithBands replaces the built-in band table.
func WithBands(b *Bands) Option {
	return func(e *Engine) {
		if b != nil {
			e.bands = b
		}
	}
}

// WithClock sets the time source used for persisted timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine persisting through store.
func NewEngine(store MoodStore, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		bands: builtin,
		now:   time.Now,
		log:   zerolog.Nop(),
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func clamp(v int) int {
	if v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	return v
}

// chatLock returns the mutex guarding chatID, creating it on first use.
func (e *Engine) chatLock(chatID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l := e.locks[chatID]
	if l == nil {
		l = &sync.Mutex{}
		e.locks[chatID] = l
	}
	return l
}

// Get returns the stored mood of chatID, 0 when absent. A storage failure is
// logged and also yields 0 so that replies keep flowing.
func (e *Engine) Get(ctx context.Context, chatID string) int {
	v, found, err := e.store.ReadMood(ctx, chatID)
	if err != nil {
		e.log.Warn().Err(err).Str("chat", chatID).Msg("mood read failed, using neutral mood")
		return 0
	}
	if !found {
		return 0
	}
	return clamp(v)
}

// Update adds delta to the mood of chatID, clamps the sum and persists it.
// Storage errors are returned; nothing is written when the read fails.
func (e *Engine) Update(ctx context.Context, chatID string, delta int) (Result, error) {
	l := e.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	current, _, err := e.store.ReadMood(ctx, chatID)
	if err != nil {
		return Result{}, fmt.Errorf("read mood of %s: %w", chatID, err)
	}
	current = clamp(current)

	// bounded first so huge deltas cannot overflow the sum
	delta = max(Min-Max, min(delta, Max-Min))
	next := clamp(current + delta)
	if err := e.store.UpsertMood(ctx, chatID, next, e.now()); err != nil {
		return Result{}, fmt.Errorf("write mood of %s: %w", chatID, err)
	}

	res := Result{
		Value:    next,
		Previous: current,
		Changed:  Floor(next) != Floor(current),
		Band:     e.bands.For(next),
	}
	if res.Changed {
		e.log.Info().
			Str("chat", chatID).
			Int("from", current).
			Int("to", next).
			Str("band", res.Band.Name).
			Msg("mood band changed")
	}
	return res, nil
}

// Set overrides the mood of chatID. Values outside [Min, Max] are rejected
// with ErrOutOfRange before anything is written.
func (e *Engine) Set(ctx context.Context, chatID string, value int) error {
	if value < Min || value > Max {
		return fmt.Errorf("%w: %d not within [%d, %d]", ErrOutOfRange, value, Min, Max)
	}

	l := e.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	if err := e.store.UpsertMood(ctx, chatID, value, e.now()); err != nil {
		return fmt.Errorf("write mood of %s: %w", chatID, err)
	}
	e.log.Info().Str("chat", chatID).Int("value", value).Msg("mood set")
	return nil
}

// Reset clears every persisted record of chatID, mood included.
func (e *Engine) Reset(ctx context.Context, chatID string) error {
	l := e.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	if err := e.store.ResetChat(ctx, chatID); err != nil {
		return fmt.Errorf("reset %s: %w", chatID, err)
	}
	e.log.Info().Str("chat", chatID).Msg("chat reset")
	return nil
}

// BandFor maps value to a band of this engine's table.
func (e *Engine) BandFor(value int) Band {
	return e.bands.For(value)
}

// Profile returns the current band of chatID.
func (e *Engine) Profile(ctx context.Context, chatID string) (int, Band) {
	v := e.Get(ctx, chatID)
	return v, e.bands.For(v)
}
