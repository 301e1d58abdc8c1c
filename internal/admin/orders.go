package admin

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

func (s *Service) ListOrders(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*orders.OrderList, error) {
	return s.orders.ListOrders(ctx, params, orders.ListFilters{Status: status})
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return s.orders.GetOrder(ctx, id)
}

// CompleteOrder marks a pending order done. Done orders cannot go back.
func (s *Service) CompleteOrder(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error) {
	return s.orders.MarkDone(ctx, id)
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID, confirmed bool) error {
	if err := RequireConfirmation(confirmed); err != nil {
		return err
	}
	return s.orders.DeleteOrder(ctx, id)
}
