package admin

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductInput creates a product. InStock defaults to true.
type ProductInput struct {
	Name             string
	Price            decimal.Decimal
	BriefDescription *string
	FullDescription  *string
	ImageURL         *string
	AdditionalImages []string
	CategoryID       *uuid.UUID
	InStock          *bool
}

// ProductPatch updates only the fields that are set. Nullable fields sent as
// null clear the column.
type ProductPatch struct {
	Name             *string
	Price            *decimal.Decimal
	BriefDescription types.NullableString
	FullDescription  types.NullableString
	ImageURL         types.NullableString
	AdditionalImages *[]string
	CategoryID       types.NullableUUID
	InStock          *bool
}

// ListProducts returns every product, out of stock included, newest first.
func (s *Service) ListProducts(ctx context.Context) ([]catalog.ProductDTO, error) {
	rows, err := s.catalog.ListProducts(ctx, catalog.ProductFilter{IncludeOutOfStock: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return catalog.NewProductDTOs(rows), nil
}

func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*catalog.ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}
	images := input.AdditionalImages
	if images == nil {
		images = []string{}
	}
	product := &models.Product{
		Name:             name,
		Price:            input.Price,
		BriefDescription: input.BriefDescription,
		FullDescription:  input.FullDescription,
		ImageURL:         input.ImageURL,
		AdditionalImages: images,
		CategoryID:       input.CategoryID,
		InStock:          inStock,
	}
	created, err := s.catalog.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := catalog.NewProductDTO(created)
	return &dto, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*catalog.ProductDTO, error) {
	product, err := s.catalog.FindProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "load product")
	}

	columns := make([]string, 0, 9)
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
		columns = append(columns, "name")
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
		product.Price = *patch.Price
		columns = append(columns, "price")
	}
	if patch.BriefDescription.Valid {
		product.BriefDescription = patch.BriefDescription.Value
		columns = append(columns, "brief_description")
	}
	if patch.FullDescription.Valid {
		product.FullDescription = patch.FullDescription.Value
		columns = append(columns, "full_description")
	}
	if patch.ImageURL.Valid {
		product.ImageURL = patch.ImageURL.Value
		columns = append(columns, "image_url")
	}
	if patch.AdditionalImages != nil {
		images := *patch.AdditionalImages
		if images == nil {
			images = []string{}
		}
		product.AdditionalImages = images
		columns = append(columns, "additional_images")
	}
	if patch.CategoryID.Valid {
		if err := s.ensureCategory(ctx, patch.CategoryID.Value); err != nil {
			return nil, err
		}
		product.CategoryID = patch.CategoryID.Value
		columns = append(columns, "category_id")
	}
	if patch.InStock != nil {
		product.InStock = *patch.InStock
		columns = append(columns, "in_stock")
	}
	if len(columns) == 0 {
		dto := catalog.NewProductDTO(product)
		return &dto, nil
	}
	product.UpdatedAt = db.UTCNow()
	columns = append(columns, "updated_at")

	updated, err := s.catalog.UpdateProduct(ctx, product, columns)
	if err != nil {
		return nil, notFoundOr(err, "product not found", "update product")
	}
	dto := catalog.NewProductDTO(updated)
	return &dto, nil
}

// DeleteProduct removes the product. Order items keep their snapshot and lose
// the product reference.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID, confirmed bool) error {
	if err := RequireConfirmation(confirmed); err != nil {
		return err
	}
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, "product not found", "delete product")
	}
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.catalog.FindCategory(ctx, *id); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist").
				WithDetails(map[string]any{"category_id": id.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price supports at most two decimal places")
	}
	return nil
}

func notFoundOr(err error, notFound, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
