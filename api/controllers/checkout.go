package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxPhoneLength = 32

// CheckoutService is the per-session checkout state machine.
type CheckoutService interface {
	Current(ctx context.Context, sessionID string) (checkout.View, error)
	Begin(ctx context.Context, sessionID string) (checkout.View, error)
	Back(ctx context.Context, sessionID string) (checkout.View, error)
	Retry(ctx context.Context, sessionID string) (checkout.View, error)
	Submit(ctx context.Context, sessionID, phone string) (checkout.View, error)
}

type submitCheckoutRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// checkoutResponse is the view with its error and success copy in the request locale.
type checkoutResponse struct {
	checkout.View
	Message string `json:"message,omitempty"`
}

func newCheckoutResponse(view checkout.View, tr *i18n.Translator) checkoutResponse {
	if view.ErrorKey != "" {
		view.Error = tr.T(view.ErrorKey, nil)
	}
	resp := checkoutResponse{View: view}
	if view.State == enums.CheckoutStateSucceeded {
		resp.Message = tr.T(i18n.KeyCheckoutSuccessMessage, map[string]any{"phone": view.PhoneNumber})
	}
	return resp
}

type checkoutTransition func(ctx context.Context, sessionID string) (checkout.View, error)

func CheckoutCurrent(svc CheckoutService, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(func(r *http.Request, sessionID string) (checkout.View, error) {
		return svc.Current(r.Context(), sessionID)
	}, localizer, logg)
}

func CheckoutBegin(svc CheckoutService, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutStep(svc.Begin, localizer, logg)
}

func CheckoutBack(svc CheckoutService, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutStep(svc.Back, localizer, logg)
}

func CheckoutRetry(svc CheckoutService, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutStep(svc.Retry, localizer, logg)
}

// CheckoutSubmit places the order. A blank phone is answered with the
// awaiting_contact view inside a validation error.
func CheckoutSubmit(svc CheckoutService, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(func(r *http.Request, sessionID string) (checkout.View, error) {
		var payload submitCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return checkout.View{}, err
		}
		return svc.Submit(r.Context(), sessionID, validators.SanitizePhone(payload.PhoneNumber, maxPhoneLength))
	}, localizer, logg)
}

func checkoutStep(step checkoutTransition, localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(func(r *http.Request, sessionID string) (checkout.View, error) {
		return step(r.Context(), sessionID)
	}, localizer, logg)
}

func checkoutHandler(run func(r *http.Request, sessionID string) (checkout.View, error), localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := run(r, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, localizeCheckoutError(err, view, localizer.Translator(r)))
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(view, localizer.Translator(r)))
	}
}

// localizeCheckoutError swaps the message for the translated one and
// attaches the translated view, when the service produced one.
func localizeCheckoutError(err error, view checkout.View, tr *i18n.Translator) error {
	typed := pkgerrors.As(err)
	if typed == nil || view.State == "" {
		return err
	}
	resp := newCheckoutResponse(view, tr)
	message := typed.Message()
	if resp.Error != "" {
		message = resp.Error
	}
	return pkgerrors.Wrap(typed.Code(), err, message).WithDetails(resp)
}
