package catalog

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategorySummaryDTO is the joined category shown on a product.
type CategorySummaryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductDTO is the catalog product payload.
type ProductDTO struct {
	ID               uuid.UUID           `json:"id"`
	Name             string              `json:"name"`
	Price            decimal.Decimal     `json:"price"`
	BriefDescription *string             `json:"brief_description,omitempty"`
	FullDescription  *string             `json:"full_description,omitempty"`
	ImageURL         *string             `json:"image_url,omitempty"`
	AdditionalImages []string            `json:"additional_images"`
	CategoryID       *uuid.UUID          `json:"category_id,omitempty"`
	Category         *CategorySummaryDTO `json:"category,omitempty"`
	InStock          bool                `json:"in_stock"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// CategoryDTO is the catalog category payload.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductDTO maps the persisted model.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:               product.ID,
		Name:             product.Name,
		Price:            product.Price,
		BriefDescription: product.BriefDescription,
		FullDescription:  product.FullDescription,
		ImageURL:         product.ImageURL,
		AdditionalImages: append([]string{}, product.AdditionalImages...),
		CategoryID:       product.CategoryID,
		InStock:          product.InStock,
		CreatedAt:        product.CreatedAt,
		UpdatedAt:        product.UpdatedAt,
	}
	if product.Category != nil {
		dto.Category = &CategorySummaryDTO{ID: product.Category.ID, Name: product.Category.Name}
	}
	return dto
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, NewProductDTO(&products[i]))
	}
	return out
}

func NewCategoryDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func NewCategoryDTOs(categories []models.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		out = append(out, NewCategoryDTO(&categories[i]))
	}
	return out
}
