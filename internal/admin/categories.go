package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string
	Description *string
}

type CategoryPatch struct {
	Name        *string
	Description types.NullableString
}

// CategoryDeleteResult reports how many products lost their category.
type CategoryDeleteResult struct {
	DetachedProducts int64 `json:"detached_products"`
}

func (s *Service) ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	rows, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return catalog.NewCategoryDTOs(rows), nil
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (*catalog.CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	created, err := s.catalog.CreateCategory(ctx, &models.Category{Name: name, Description: input.Description})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
	}
	dto := catalog.NewCategoryDTO(created)
	return &dto, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*catalog.CategoryDTO, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
		}
		updates["name"] = name
	}
	if patch.Description.Valid {
		updates["description"] = patch.Description.Value
	}

	if len(updates) == 0 {
		category, err := s.catalog.FindCategory(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "category not found", "load category")
		}
		dto := catalog.NewCategoryDTO(category)
		return &dto, nil
	}
	updates["updated_at"] = db.UTCNow()

	updated, err := s.catalog.UpdateCategory(ctx, id, updates)
	if err != nil {
		return nil, notFoundOr(err, "category not found", "update category")
	}
	dto := catalog.NewCategoryDTO(updated)
	return &dto, nil
}

// DeleteCategory detaches the category's products and deletes it in one
// transaction. Products are never deleted with their category.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID, confirmed bool) (*CategoryDeleteResult, error) {
	if err := RequireConfirmation(confirmed); err != nil {
		return nil, err
	}

	result := &CategoryDeleteResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.catalog.WithTx(tx)
		detached, err := repo.DetachCategory(ctx, id)
		if err != nil {
			return fmt.Errorf("detach products: %w", err)
		}
		if err := repo.DeleteCategory(ctx, id); err != nil {
			return err
		}
		result.DetachedProducts = detached
		return nil
	})
	if err != nil {
		return nil, notFoundOr(err, "category not found", "delete category")
	}
	return result, nil
}
