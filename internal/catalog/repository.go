package catalog

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	CategoryID        *uuid.UUID
	IncludeOutOfStock bool
}

// Repository persists products and categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListProducts returns products newest first with their category preloaded.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")
	if !filter.IncludeOutOfStock {
		query = query.Where("in_stock = ?", true)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindProduct loads a single product with its category.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Category").Create(product).Error; err != nil {
		return nil, err
	}
	return r.FindProduct(ctx, product.ID)
}

// UpdateProduct writes the listed columns of product and returns the refreshed row.
// Struct updates keep the JSON serializer on additional_images in play.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product, columns []string) (*models.Product, error) {
	if len(columns) == 0 {
		return r.FindProduct(ctx, product.ID)
	}
	result := r.db.WithContext(ctx).
		Model(&models.Product{ID: product.ID}).
		Select(columns).
		Omit("Category").
		Updates(product)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindProduct(ctx, product.ID)
}

func (r *Repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListCategories returns categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *Repository) FindCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Category, error) {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindCategory(ctx, id)
}

// DetachCategory clears category_id on every product in the category.
func (r *Repository) DetachCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", categoryID).
		Update("category_id", nil)
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
