package catalog

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func mustCreateCategory(t *testing.T, tx *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	if err := tx.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, name string, price string, categoryID *uuid.UUID, inStock bool, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		InStock:    inStock,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := tx.Omit("Category").Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
