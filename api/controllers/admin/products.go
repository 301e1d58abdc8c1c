package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	adminsvc "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type createProductRequest struct {
	Name             string          `json:"name" validate:"required,max=255"`
	Price            decimal.Decimal `json:"price"`
	BriefDescription *string         `json:"brief_description"`
	FullDescription  *string         `json:"full_description"`
	ImageURL         *string         `json:"image_url" validate:"omitempty,http_url"`
	AdditionalImages []string        `json:"additional_images" validate:"omitempty,dive,http_url"`
	CategoryID       *uuid.UUID      `json:"category_id"`
	InStock          *bool           `json:"in_stock"`
}

func (p createProductRequest) toInput() adminsvc.ProductInput {
	return adminsvc.ProductInput{
		Name:             p.Name,
		Price:            p.Price,
		BriefDescription: p.BriefDescription,
		FullDescription:  p.FullDescription,
		ImageURL:         p.ImageURL,
		AdditionalImages: p.AdditionalImages,
		CategoryID:       p.CategoryID,
		InStock:          p.InStock,
	}
}

type updateProductRequest struct {
	Name             *string              `json:"name" validate:"omitempty,max=255"`
	Price            *decimal.Decimal     `json:"price"`
	BriefDescription types.NullableString `json:"brief_description"`
	FullDescription  types.NullableString `json:"full_description"`
	ImageURL         types.NullableString `json:"image_url"`
	AdditionalImages *[]string            `json:"additional_images"`
	CategoryID       types.NullableUUID   `json:"category_id"`
	InStock          *bool                `json:"in_stock"`
}

func (p updateProductRequest) toPatch() adminsvc.ProductPatch {
	return adminsvc.ProductPatch{
		Name:             p.Name,
		Price:            p.Price,
		BriefDescription: p.BriefDescription,
		FullDescription:  p.FullDescription,
		ImageURL:         p.ImageURL,
		AdditionalImages: p.AdditionalImages,
		CategoryID:       p.CategoryID,
		InStock:          p.InStock,
	}
}

// ListProducts returns every product, out of stock included.
func ListProducts(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func CreateProduct(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct applies a partial update; null clears nullable fields.
func UpdateProduct(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, payload.toPatch())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ok, err := confirmed(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id, ok); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
