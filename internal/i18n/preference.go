package i18n

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// PreferenceKey is the per-session key name holding the chosen locale.
const PreferenceKey = "app_language"

type preferenceStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SessionKey(sessionID, name string) string
}

// Preferences persists each session's locale choice.
type Preferences struct {
	storage preferenceStorage
	ttl     time.Duration
}

func NewPreferences(storage preferenceStorage, ttl time.Duration) (*Preferences, error) {
	if storage == nil {
		return nil, fmt.Errorf("preference storage required")
	}
	return &Preferences{storage: storage, ttl: ttl}, nil
}

// Get returns the stored locale, or "" when none (or an unknown value) is stored.
func (p *Preferences) Get(ctx context.Context, sessionID string) (enums.Locale, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", nil
	}
	raw, err := p.storage.Get(ctx, p.storage.SessionKey(sessionID, PreferenceKey))
	if err != nil {
		if pkgredis.IsNil(err) {
			return "", nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load locale preference")
	}
	locale, err := enums.ParseLocale(raw)
	if err != nil {
		return "", nil
	}
	return locale, nil
}

func (p *Preferences) Set(ctx context.Context, sessionID string, locale enums.Locale) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if !locale.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported locale").
			WithDetails(map[string]any{"locale": locale, "supported": enums.Locales()})
	}
	if err := p.storage.Set(ctx, p.storage.SessionKey(sessionID, PreferenceKey), locale.String(), p.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store locale preference")
	}
	return nil
}
