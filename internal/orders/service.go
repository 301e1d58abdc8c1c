package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order placement and administration.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	MarkDone(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// PlaceOrderInput is the contact phone plus the cart lines being ordered.
type PlaceOrderInput struct {
	PhoneNumber string
	Lines       []LineInput
}

// LineInput is a cart line snapshot.
type LineInput struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.StorefrontMetrics
}

// NewService builds the order service.
func NewService(repo Repository, tx txRunner, m *metrics.StorefrontMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m}, nil
}

// PlaceOrder writes the header and its items in one transaction; a failure on
// either rolls both back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	phone := strings.TrimSpace(input.PhoneNumber)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	items := make([]models.OrderItem, 0, len(input.Lines))
	total := decimal.Zero
	for _, line := range input.Lines {
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)

		productID := line.ProductID
		items = append(items, models.OrderItem{
			ProductID:    &productID,
			ProductName:  line.Name,
			ProductPrice: line.UnitPrice,
			Quantity:     line.Quantity,
			Subtotal:     subtotal,
		})
	}

	started := time.Now()
	order := &models.Order{
		PhoneNumber: phone,
		TotalAmount: total,
		Status:      enums.OrderStatusPending,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order header: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveOrderPlacement(metrics.OutcomeFailure, time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to place order")
	}
	s.metrics.ObserveOrderPlacement(metrics.OutcomeSuccess, time.Since(started))

	order.Items = items
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.ListOrders(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// UpdateStatus moves the order to status. Only pending -> done is accepted.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"status": status})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		updated, err = s.load(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(updated)
	return &dto, nil
}

func (s *service) MarkDone(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	return s.UpdateStatus(ctx, id, enums.OrderStatusDone)
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DeleteOrder(ctx, id)
	})
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	order, err := repo.FindOrder(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}
