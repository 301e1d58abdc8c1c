package toast

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/registry"
	"github.com/google/uuid"
)

// Board holds one List per session. Reads of a session with no list see
// nothing and leave nothing behind; lists that stay empty past the idle
// timeout are dropped.
type Board struct {
	lists *registry.Registry[*List]
	opts  []Option
}

// NewBoard builds a board whose lists are created with opts. A zero idle
// uses the registry default.
func NewBoard(idle time.Duration, opts ...Option) *Board {
	return NewBoardWithClock(idle, nil, opts...)
}

// NewBoardWithClock is NewBoard with the idle clock replaced.
func NewBoardWithClock(idle time.Duration, now func() time.Time, opts ...Option) *Board {
	return &Board{
		lists: registry.New(idle,
			registry.WithClock[*List](now),
			registry.WithKeep((*List).Active),
			registry.WithOnEvict((*List).Close),
		),
		opts: opts,
	}
}

func (b *Board) Push(sessionID, message string, severity enums.ToastSeverity, duration time.Duration) Toast {
	sessionID = strings.TrimSpace(sessionID)
	l, ok := b.lists.Get(sessionID)
	if !ok {
		l, _ = b.lists.LoadOrStore(sessionID, NewList(b.opts...))
	}
	return l.Add(message, severity, duration)
}

func (b *Board) Entries(sessionID string) []Toast {
	l, ok := b.lists.Get(strings.TrimSpace(sessionID))
	if !ok {
		return []Toast{}
	}
	return l.Entries()
}

func (b *Board) Dismiss(sessionID string, id uuid.UUID) bool {
	l, ok := b.lists.Get(strings.TrimSpace(sessionID))
	if !ok {
		return false
	}
	return l.Dismiss(id)
}

// Resident reports how many session lists are held.
func (b *Board) Resident() int {
	return b.lists.Len()
}

// Close stops the timers of every session list.
func (b *Board) Close() {
	b.lists.Drain((*List).Close)
}
