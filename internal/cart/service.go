package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/registry"
	"github.com/google/uuid"
)

// SnapshotKey is the per-session key name the cart is stored under.
const SnapshotKey = "cart"

// SessionStorage is Storage plus the session key builder.
type SessionStorage interface {
	Storage
	SessionKey(sessionID, name string) string
}

type productLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error)
}

// AddResult reports the line produced by an add and whether it merged into an existing one.
type AddResult struct {
	Cart   View `json:"cart"`
	Line   Line `json:"line"`
	Merged bool `json:"merged"`
}

// Service keeps a Store for each session that changed its cart recently.
// Storage stays the source of truth: an evicted or never-touched session is
// read straight from it.
type Service struct {
	storage SessionStorage
	catalog productLookup
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.StorefrontMetrics

	idle   time.Duration
	clock  func() time.Time
	stores *registry.Registry[*Store]
}

// Option customises the Service.
type Option func(*Service)

// WithIdleTimeout sets how long an untouched session store stays in memory.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.idle = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.clock = now
	}
}

// NewService builds the session cart registry.
func NewService(storage SessionStorage, catalog productLookup, ttl time.Duration, logg *logger.Logger, m *metrics.StorefrontMetrics, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Service{
		storage: storage,
		catalog: catalog,
		ttl:     ttl,
		logg:    logg,
		metrics: m,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.stores = registry.New(s.idle, registry.WithClock[*Store](s.clock))
	return s, nil
}

// Store returns the session's store, opening it from storage on first use.
// Concurrent first uses agree on a single store.
func (s *Service) Store(ctx context.Context, sessionID string) (*Store, error) {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return nil, err
	}
	if store, ok := s.stores.Get(sessionID); ok {
		return store, nil
	}
	opened := s.open(ctx, sessionID)
	store, _ := s.stores.LoadOrStore(sessionID, opened)
	return store, nil
}

// Snapshot reads the cart without keeping the session resident.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (View, error) {
	sessionID, err := requireSession(sessionID)
	if err != nil {
		return View{}, err
	}
	if store, ok := s.stores.Get(sessionID); ok {
		return store.Snapshot(), nil
	}
	return s.open(ctx, sessionID).Snapshot(), nil
}

// Resident reports how many session stores are held in memory.
func (s *Service) Resident() int {
	return s.stores.Len()
}

func (s *Service) open(ctx context.Context, sessionID string) *Store {
	return Open(ctx, s.storage, s.storage.SessionKey(sessionID, SnapshotKey), s.ttl, s.logg)
}

func requireSession(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return sessionID, nil
}

// AddProduct looks the product up in the catalog and merges it into the cart.
func (s *Service) AddProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*AddResult, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.InStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	line, merged := store.AddItem(ctx, Product{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
	})
	s.metrics.IncCartMutation("add")
	return &AddResult{Cart: store.Snapshot(), Line: line, Merged: merged}, nil
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (View, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	store.UpdateQuantity(ctx, productID, quantity)
	s.metrics.IncCartMutation("update")
	return store.Snapshot(), nil
}

func (s *Service) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (View, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	store.RemoveItem(ctx, productID)
	s.metrics.IncCartMutation("remove")
	return store.Snapshot(), nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) (View, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	store.Clear(ctx)
	s.metrics.IncCartMutation("clear")
	return store.Snapshot(), nil
}

func isMissing(err error) bool {
	return pkgredis.IsNil(err)
}
