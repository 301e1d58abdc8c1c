package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/toast"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type toastBoard interface {
	Entries(sessionID string) []toast.Toast
	Dismiss(sessionID string, id uuid.UUID) bool
}

// ToastList returns the session's live toasts, oldest first.
func ToastList(board toastBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board.Entries(sessionID))
	}
}

func ToastDismiss(board toastBoard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "toastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !board.Dismiss(sessionID, id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "toast not found"))
			return
		}
		responses.WriteNoContent(w)
	}
}
