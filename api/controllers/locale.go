package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type localePreferences interface {
	Get(ctx context.Context, sessionID string) (enums.Locale, error)
	Set(ctx context.Context, sessionID string, locale enums.Locale) error
}

// Localizer picks the translator for a request: ?lang=, then the session
// preference, then Accept-Language, then the bundle default.
type Localizer struct {
	bundle *i18n.Bundle
	prefs  localePreferences
	logg   *logger.Logger
}

func NewLocalizer(bundle *i18n.Bundle, prefs localePreferences, logg *logger.Logger) *Localizer {
	return &Localizer{bundle: bundle, prefs: prefs, logg: logg}
}

func (l *Localizer) Locale(r *http.Request) enums.Locale {
	var preference enums.Locale
	if l.prefs != nil {
		if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
			stored, err := l.prefs.Get(r.Context(), sessionID)
			if err != nil && l.logg != nil {
				l.logg.Warn(l.logg.WithField(r.Context(), "error", err.Error()), "locale.preference.read_failed")
			}
			preference = stored
		}
	}
	return i18n.Negotiate(r.URL.Query().Get("lang"), preference, r.Header.Get("Accept-Language"), l.bundle.DefaultLocale())
}

func (l *Localizer) Translator(r *http.Request) *i18n.Translator {
	return l.bundle.Translator(l.Locale(r))
}

func requireSession(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return sessionID, nil
}
