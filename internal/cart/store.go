package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. A product appears at most once and its
// quantity is always at least one.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Product is the catalog projection needed to add a line.
type Product struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	ImageURL *string
}

// Storage is the key-value surface the store persists through.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Store owns the ordered line collection of one cart. Every mutation writes the
// whole collection to storage; write failures are logged and never returned.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage Storage
	key     string
	ttl     time.Duration
	logg    *logger.Logger
}

// Open rehydrates the store saved under key. Missing or malformed snapshots
// produce an empty cart.
func Open(ctx context.Context, storage Storage, key string, ttl time.Duration, logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{storage: storage, key: key, ttl: ttl, logg: logg}
	s.lines = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) []Line {
	if s.storage == nil {
		return nil
	}
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !isMissing(err) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": s.key, "error": err.Error()}), "cart snapshot unreadable, starting empty")
		}
		return nil
	}
	lines, ok := decodeLines(raw)
	if !ok {
		s.logg.Warn(s.logg.WithField(ctx, "key", s.key), "cart snapshot malformed, starting empty")
		return nil
	}
	return lines
}

// decodeLines parses a snapshot and rejects any that break the line invariants.
func decodeLines(raw string) ([]Line, bool) {
	if raw == "" {
		return nil, true
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, false
	}
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Quantity < 1 || line.UnitPrice.IsNegative() {
			return nil, false
		}
		if _, dup := seen[line.ProductID]; dup {
			return nil, false
		}
		seen[line.ProductID] = struct{}{}
	}
	return lines, true
}

// AddItem merges product into the cart: an existing line gains one unit,
// otherwise a new line with quantity one is appended.
func (s *Store) AddItem(ctx context.Context, product Product) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(product.ID); idx >= 0 {
		s.lines[idx].Quantity++
		line := s.lines[idx]
		s.persist(ctx)
		return line, true
	}

	line := Line{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
		ImageURL:  product.ImageURL,
	}
	s.lines = append(s.lines, line)
	s.persist(ctx)
	return line, false
}

// UpdateQuantity sets the absolute quantity of a line; quantity <= 0 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return
	}
	s.lines[idx].Quantity = quantity
	s.persist(ctx)
}

// RemoveItem deletes the line for productID if present.
func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.persist(ctx)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.persist(ctx)
}

// TotalItemCount sums the quantities of all lines.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItemCount(s.lines)
}

// TotalAmount sums unit price times quantity over all lines.
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalAmount(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Snapshot returns lines and totals read under a single lock.
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newView(s.lines)
}

func (s *Store) indexOf(productID uuid.UUID) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}
	lines := s.lines
	if lines == nil {
		lines = []Line{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		s.logg.Error(ctx, "encode cart snapshot", err)
		return
	}
	if err := s.storage.Set(ctx, s.key, string(payload), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": s.key, "error": err.Error()}), "cart snapshot not persisted")
	}
}

func totalItemCount(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func totalAmount(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
