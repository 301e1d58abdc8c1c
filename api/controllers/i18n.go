package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type messagesResponse struct {
	Locale   enums.Locale   `json:"locale"`
	Locales  []enums.Locale `json:"locales"`
	Messages map[string]any `json:"messages"`
}

type translateResponse struct {
	Key    string       `json:"key"`
	Locale enums.Locale `json:"locale"`
	Value  string       `json:"value"`
}

type setLocaleRequest struct {
	Locale string `json:"locale" validate:"required"`
}

type localeResponse struct {
	Locale enums.Locale `json:"locale"`
}

// I18nMessages returns the whole catalog for the negotiated locale.
func I18nMessages(localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tr := localizer.Translator(r)
		responses.WriteSuccess(w, messagesResponse{
			Locale:   tr.Locale(),
			Locales:  localizer.bundle.Locales(),
			Messages: tr.Messages(),
		})
	}
}

// I18nTranslate resolves ?key= with every other query parameter except lang
// used as a placeholder value. Unknown keys come back verbatim.
func I18nTranslate(localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		key := strings.TrimSpace(query.Get("key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}

		params := map[string]any{}
		for name, values := range query {
			if name == "key" || name == "lang" || len(values) == 0 {
				continue
			}
			params[name] = values[0]
		}

		tr := localizer.Translator(r)
		responses.WriteSuccess(w, translateResponse{
			Key:    key,
			Locale: tr.Locale(),
			Value:  tr.Resolve(key, params),
		})
	}
}

// I18nSetLocale stores the session's language choice.
func I18nSetLocale(localizer *Localizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := requireSession(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if localizer.prefs == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locale preferences unavailable"))
			return
		}

		var payload setLocaleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locale, err := enums.ParseLocale(payload.Locale)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported locale").WithDetails(map[string]any{"supported": enums.Locales()}))
			return
		}

		if err := localizer.prefs.Set(r.Context(), sessionID, locale); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, localeResponse{Locale: locale})
	}
}
