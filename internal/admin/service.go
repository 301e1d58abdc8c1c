// Package admin backs the admin panels: catalog CRUD, order handling and login.
package admin

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service implements the admin CRUD operations. Every delete goes through the
// confirmation gate first.
type Service struct {
	catalog *catalog.Repository
	orders  orders.Service
	tx      txRunner
}

func NewService(repo *catalog.Repository, ordersSvc orders.Service, tx txRunner) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &Service{catalog: repo, orders: ordersSvc, tx: tx}, nil
}

// RequireConfirmation rejects destructive calls that were not explicitly confirmed.
func RequireConfirmation(confirmed bool) error {
	if !confirmed {
		return pkgerrors.New(pkgerrors.CodeValidation, "confirmation required").
			WithDetails(map[string]any{"confirm": "pass confirm=true to delete"})
	}
	return nil
}
