// Package registry holds per-session in-process state and forgets sessions
// that stay idle past a timeout.
package registry

import (
	"sync"
	"time"
)

const DefaultIdleTimeout = 30 * time.Minute

type entry[T any] struct {
	value   T
	touched time.Time
}

// Registry maps session ids to values. Reads never insert. Idle entries are
// swept lazily when a new session is stored, at most once per half timeout.
type Registry[T any] struct {
	idle    time.Duration
	now     func() time.Time
	keep    func(T) bool
	onEvict func(T)

	mu        sync.Mutex
	entries   map[string]*entry[T]
	lastSweep time.Time
}

type Option[T any] func(*Registry[T])

func WithClock[T any](now func() time.Time) Option[T] {
	return func(r *Registry[T]) {
		if now != nil {
			r.now = now
		}
	}
}

// WithKeep pins entries the predicate reports as busy, whatever their age.
// It runs with the registry lock held and must not call back into it.
func WithKeep[T any](keep func(T) bool) Option[T] {
	return func(r *Registry[T]) {
		r.keep = keep
	}
}

// WithOnEvict runs for every value the registry drops.
func WithOnEvict[T any](fn func(T)) Option[T] {
	return func(r *Registry[T]) {
		r.onEvict = fn
	}
}

func New[T any](idle time.Duration, opts ...Option[T]) *Registry[T] {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	r := &Registry[T]{
		idle:    idle,
		now:     time.Now,
		entries: make(map[string]*entry[T]),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Get returns the session's value and marks it as used.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.touched = r.now()
	return e.value, true
}

// LoadOrStore returns the value already held for id, or stores value.
// loaded reports which one happened.
func (r *Registry[T]) LoadOrStore(id string, value T) (actual T, loaded bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if e, ok := r.entries[id]; ok {
		e.touched = now
		return e.value, true
	}
	if now.Sub(r.lastSweep) >= r.idle/2 {
		r.sweepLocked(now)
	}
	r.entries[id] = &entry[T]{value: value, touched: now}
	return value, false
}

// Sweep drops every idle entry now and reports how many went.
func (r *Registry[T]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry[T]) sweepLocked(now time.Time) int {
	r.lastSweep = now
	evicted := 0
	for id, e := range r.entries {
		if now.Sub(e.touched) < r.idle {
			continue
		}
		if r.keep != nil && r.keep(e.value) {
			continue
		}
		delete(r.entries, id)
		if r.onEvict != nil {
			r.onEvict(e.value)
		}
		evicted++
	}
	return evicted
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain removes every entry, handing each to fn.
func (r *Registry[T]) Drain(fn func(T)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		delete(r.entries, id)
		if fn != nil {
			fn(e.value)
		}
	}
}
