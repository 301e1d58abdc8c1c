package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/internal/toast"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartService is the session cart surface the handlers need.
type CartService interface {
	Snapshot(ctx context.Context, sessionID string) (cart.View, error)
	AddProduct(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.AddResult, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (cart.View, error)
	RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (cart.View, error)
	Clear(ctx context.Context, sessionID string) (cart.View, error)
}

type toastPusher interface {
	Push(sessionID, message string, severity enums.ToastSeverity, duration time.Duration) toast.Toast
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type addCartItemResponse struct {
	Cart   cart.View   `json:"cart"`
	Line   cart.Line   `json:"line"`
	Merged bool        `json:"merged"`
	Toast  toast.Toast `json:"toast"`
}

func CartFetch(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Snapshot(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddItem merges a product into the session cart and pushes a translated toast.
func CartAddItem(svc CartService, toasts toastPusher, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddProduct(r.Context(), sessionID, payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		key := i18n.KeyProductAddedToCart
		if result.Merged {
			key = i18n.KeyProductQuantityUpdated
		}
		message := localizer.Translator(r).T(key, map[string]any{"name": result.Line.Name})
		pushed := toasts.Push(sessionID, message, enums.ToastSeveritySuccess, 0)

		responses.WriteSuccess(w, addCartItemResponse{
			Cart:   result.Cart,
			Line:   result.Line,
			Merged: result.Merged,
			Toast:  pushed,
		})
	}
}

// CartUpdateItem sets the quantity of a line; zero or less removes it.
func CartUpdateItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateQuantity(r.Context(), sessionID, productID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartRemoveItem(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseURLUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), sessionID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Clear(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}
