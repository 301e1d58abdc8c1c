package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products map[uuid.UUID]*catalog.ProductDTO
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func newStubCatalog(products ...catalog.ProductDTO) *stubCatalog {
	stub := &stubCatalog{products: map[uuid.UUID]*catalog.ProductDTO{}}
	for i := range products {
		stub.products[products[i].ID] = &products[i]
	}
	return stub
}

func newRedisService(t *testing.T, lookup productLookup) (*Service, *miniredis.Miniredis, *pkgredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	svc, err := NewService(client, lookup, time.Hour, nil, nil)
	require.NoError(t, err)
	return svc, mr, client
}

func TestServiceAddProductPersistsToRedis(t *testing.T) {
	tea := catalog.ProductDTO{ID: uuid.New(), Name: "Tea", Price: decimal.RequireFromString("3.50"), InStock: true}
	svc, mr, client := newRedisService(t, newStubCatalog(tea))
	ctx := context.Background()

	first, err := svc.AddProduct(ctx, "sess-1", tea.ID)
	require.NoError(t, err)
	assert.False(t, first.Merged)

	second, err := svc.AddProduct(ctx, "sess-1", tea.ID)
	require.NoError(t, err)
	assert.True(t, second.Merged)
	assert.Equal(t, 2, second.Cart.TotalItemCount)
	assert.Equal(t, "7.00", second.Cart.TotalAmount.StringFixed(2))

	key := client.SessionKey("sess-1", SnapshotKey)
	raw, err := mr.Get(key)
	require.NoError(t, err)
	assert.Contains(t, raw, tea.ID.String())
	assert.Equal(t, time.Hour, mr.TTL(key))

	other, err := svc.Snapshot(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, other.Lines)
}

func TestServiceRehydratesAcrossInstances(t *testing.T) {
	tea := catalog.ProductDTO{ID: uuid.New(), Name: "Tea", Price: decimal.RequireFromString("3.50"), InStock: true}
	lookup := newStubCatalog(tea)
	svc, _, client := newRedisService(t, lookup)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", tea.ID)
	require.NoError(t, err)

	restarted, err := NewService(client, lookup, time.Hour, nil, nil)
	require.NoError(t, err)
	view, err := restarted.Snapshot(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, tea.ID, view.Lines[0].ProductID)
}

func TestServiceAddProductErrors(t *testing.T) {
	soldOut := catalog.ProductDTO{ID: uuid.New(), Name: "Gone", Price: decimal.NewFromInt(1), InStock: false}
	svc, _, _ := newRedisService(t, newStubCatalog(soldOut))
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "sess-1", uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddProduct(ctx, "sess-1", soldOut.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.AddProduct(ctx, " ", soldOut.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceUpdateRemoveClear(t *testing.T) {
	a := catalog.ProductDTO{ID: uuid.New(), Name: "A", Price: decimal.RequireFromString("3.50"), InStock: true}
	b := catalog.ProductDTO{ID: uuid.New(), Name: "B", Price: decimal.RequireFromString("1.25"), InStock: true}
	svc, _, _ := newRedisService(t, newStubCatalog(a, b))
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, "s", a.ID)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, "s", b.ID)
	require.NoError(t, err)

	view, err := svc.UpdateQuantity(ctx, "s", a.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "8.25", view.TotalAmount.StringFixed(2))

	view, err = svc.RemoveItem(ctx, "s", b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalItemCount)

	view, err = svc.Clear(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.TotalAmount.IsZero())
}

func TestServiceSnapshotDoesNotKeepSessionResident(t *testing.T) {
	svc, _, _ := newRedisService(t, newStubCatalog())
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		view, err := svc.Snapshot(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, view.Lines)
	}
	assert.Zero(t, svc.Resident())
}

func TestServiceEvictsIdleStoresAndRehydrates(t *testing.T) {
	tea := catalog.ProductDTO{ID: uuid.New(), Name: "Tea", Price: decimal.RequireFromString("3.50"), InStock: true}
	mr := miniredis.RunT(t)
	client, err := pkgredis.New(context.Background(), config.RedisConfig{Address: mr.Addr()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(client, newStubCatalog(tea), time.Hour, nil, nil,
		WithIdleTimeout(10*time.Minute),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.AddProduct(ctx, "sess-1", tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Resident())

	now = now.Add(15 * time.Minute)
	_, err = svc.AddProduct(ctx, "sess-2", tea.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Resident(), "idle session should be swept when a new one arrives")

	view, err := svc.Snapshot(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 1, view.Lines[0].Quantity)
}
