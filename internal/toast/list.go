// Package toast keeps short-lived, self-expiring notices per session.
package toast

import (
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

const (
	DefaultDuration   = 3000 * time.Millisecond
	DefaultMaxEntries = 5
)

// Toast is one visible notice.
type Toast struct {
	ID         uuid.UUID           `json:"id"`
	Message    string              `json:"message"`
	Severity   enums.ToastSeverity `json:"severity"`
	DurationMS int64               `json:"duration_ms"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Timer is the handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. Tests swap it to drive expiry by hand.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	toast Toast
	timer Timer
}

// List is a bounded, insertion-ordered collection where every entry removes
// itself after its own duration.
type List struct {
	mu              sync.Mutex
	entries         []entry
	maxEntries      int
	defaultDuration time.Duration
	afterFunc       AfterFunc
	now             func() time.Time
	closed          bool
}

// Option customises a List.
type Option func(*List)

func WithMaxEntries(n int) Option {
	return func(l *List) {
		if n > 0 {
			l.maxEntries = n
		}
	}
}

func WithDefaultDuration(d time.Duration) Option {
	return func(l *List) {
		if d > 0 {
			l.defaultDuration = d
		}
	}
}

func WithAfterFunc(fn AfterFunc) Option {
	return func(l *List) {
		if fn != nil {
			l.afterFunc = fn
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *List) {
		if now != nil {
			l.now = now
		}
	}
}

func NewList(opts ...Option) *List {
	l := &List{
		maxEntries:      DefaultMaxEntries,
		defaultDuration: DefaultDuration,
		afterFunc:       realAfterFunc,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Add appends a toast. A zero duration uses the list default and an unknown
// severity becomes success. When the list is full the oldest entry is evicted.
func (l *List) Add(message string, severity enums.ToastSeverity, duration time.Duration) Toast {
	if duration <= 0 {
		duration = l.defaultDuration
	}
	if !severity.IsValid() {
		severity = enums.ToastSeveritySuccess
	}
	t := Toast{
		ID:         uuid.New(),
		Message:    message,
		Severity:   severity,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return t
	}
	for len(l.entries) >= l.maxEntries {
		l.entries[0].timer.Stop()
		l.entries = l.entries[1:]
	}
	id := t.ID
	l.entries = append(l.entries, entry{
		toast: t,
		timer: l.afterFunc(duration, func() { l.Dismiss(id) }),
	})
	return t
}

// Dismiss removes the toast early. It reports whether it was still present.
func (l *List) Dismiss(id uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.toast.ID == id {
			e.timer.Stop()
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Entries returns the visible toasts, oldest first.
func (l *List) Entries() []Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Toast, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.toast)
	}
	return out
}

// Active reports whether any toast is still visible.
func (l *List) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries) > 0
}

// Close stops every pending timer and drops the entries.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		e.timer.Stop()
	}
	l.entries = nil
	l.closed = true
}
