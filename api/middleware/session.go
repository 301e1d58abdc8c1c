package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	SessionHeader = "X-Session-Id"
	SessionCookie = "sf_session"

	sessionCookieMaxAge = 365 * 24 * 60 * 60
	maxSessionIDLength  = 128
)

// Session resolves the anonymous storefront session from the X-Session-Id
// header or the sf_session cookie, minting a new one when neither is usable.
// The resolved id is echoed back in both places.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionFromRequest(r)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			w.Header().Set(SessionHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request) string {
	if id := normalizeSessionID(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return normalizeSessionID(cookie.Value)
	}
	return ""
}

// normalizeSessionID accepts short printable tokens only; anything else is replaced.
func normalizeSessionID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxSessionIDLength {
		return ""
	}
	for _, c := range id {
		if c < '!' || c > '~' || c == ':' {
			return ""
		}
	}
	return id
}
