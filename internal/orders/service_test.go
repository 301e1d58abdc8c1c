package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client, metrics.NewStorefrontMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	return svc, client.DB()
}

func seedProduct(t *testing.T, conn *gorm.DB, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{Name: name, Price: decimal.RequireFromString(price), InStock: true}
	require.NoError(t, conn.Omit("Category").Create(product).Error)
	return product
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestPlaceOrderWritesHeaderAndItems(t *testing.T) {
	svc, conn := newTestService(t)
	tea := seedProduct(t, conn, "Tea", "3.50")
	chips := seedProduct(t, conn, "Chips", "1.25")

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		PhoneNumber: " +998901234567 ",
		Lines: []LineInput{
			{ProductID: tea.ID, Name: "Tea", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 2},
			{ProductID: chips.ID, Name: "Chips", UnitPrice: decimal.RequireFromString("1.25"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", order.PhoneNumber)
	assert.Equal(t, "8.25", order.TotalAmount.StringFixed(2))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "7.00", order.Items[0].Subtotal.StringFixed(2))

	stored, err := svc.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "8.25", stored.TotalAmount.StringFixed(2))
	assert.Len(t, stored.Items, 2)
}

func TestPlaceOrderRollsBackWhenItemsFail(t *testing.T) {
	svc, conn := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		PhoneNumber: "+998901234567",
		Lines: []LineInput{
			{ProductID: uuid.New(), Name: "Ghost", UnitPrice: decimal.NewFromInt(1), Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Zero(t, countRows(t, conn, &models.Order{}))
	assert.Zero(t, countRows(t, conn, &models.OrderItem{}))
}

func TestPlaceOrderValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, PlaceOrderInput{PhoneNumber: "  ", Lines: []LineInput{{ProductID: uuid.New(), Quantity: 1}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{PhoneNumber: "+1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.PlaceOrder(ctx, PlaceOrderInput{PhoneNumber: "+1", Lines: []LineInput{{ProductID: uuid.New(), Quantity: 0}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestStatusTransitions(t *testing.T) {
	svc, conn := newTestService(t)
	tea := seedProduct(t, conn, "Tea", "2.00")
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		PhoneNumber: "+1",
		Lines:       []LineInput{{ProductID: tea.ID, Name: "Tea", UnitPrice: decimal.NewFromInt(2), Quantity: 1}},
	})
	require.NoError(t, err)

	done, err := svc.MarkDone(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDone, done.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatusPending)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.MarkDone(ctx, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.UpdateStatus(ctx, order.ID, enums.OrderStatus("shipped"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.MarkDone(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteOrderRemovesItems(t *testing.T) {
	svc, conn := newTestService(t)
	tea := seedProduct(t, conn, "Tea", "2.00")
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, PlaceOrderInput{
		PhoneNumber: "+1",
		Lines:       []LineInput{{ProductID: tea.ID, Name: "Tea", UnitPrice: decimal.NewFromInt(2), Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))
	assert.Zero(t, countRows(t, conn, &models.OrderItem{}))

	err = svc.DeleteOrder(ctx, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListOrdersPaginatesAndFilters(t *testing.T) {
	svc, conn := newTestService(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		status := enums.OrderStatusPending
		if i == 0 {
			status = enums.OrderStatusDone
		}
		order := &models.Order{
			PhoneNumber: "+1",
			TotalAmount: decimal.NewFromInt(int64(i + 1)),
			Status:      status,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   base,
		}
		require.NoError(t, conn.Omit("Items").Create(order).Error)
	}
	ctx := context.Background()

	first, err := svc.ListOrders(ctx, pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "3", first.Orders[0].TotalAmount.String())
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListOrders(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, "1", second.Orders[0].TotalAmount.String())
	assert.Empty(t, second.NextCursor)

	pending := enums.OrderStatusPending
	filtered, err := svc.ListOrders(ctx, pagination.Params{}, ListFilters{Status: &pending})
	require.NoError(t, err)
	assert.Len(t, filtered.Orders, 2)

	_, err = svc.ListOrders(ctx, pagination.Params{Cursor: "%%%"}, ListFilters{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
