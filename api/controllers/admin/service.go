// Package admin holds the HTTP handlers behind /api/admin/v1.
package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/validators"
	adminsvc "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Service is the admin panel surface backing the handlers.
type Service interface {
	ListProducts(ctx context.Context) ([]catalog.ProductDTO, error)
	CreateProduct(ctx context.Context, input adminsvc.ProductInput) (*catalog.ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch adminsvc.ProductPatch) (*catalog.ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, confirmed bool) error

	ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error)
	CreateCategory(ctx context.Context, input adminsvc.CategoryInput) (*catalog.CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch adminsvc.CategoryPatch) (*catalog.CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID, confirmed bool) (*adminsvc.CategoryDeleteResult, error)

	ListOrders(ctx context.Context, params pagination.Params, status *enums.OrderStatus) (*orders.OrderList, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error)
	CompleteOrder(ctx context.Context, id uuid.UUID) (*orders.OrderDTO, error)
	DeleteOrder(ctx context.Context, id uuid.UUID, confirmed bool) error
}

func confirmed(r *http.Request) (bool, error) {
	return validators.ParseQueryBool(r, "confirm")
}
