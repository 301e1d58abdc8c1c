package i18n

import (
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"golang.org/x/text/language"
)

var (
	supportedLocales = enums.Locales()
	matcher          = language.NewMatcher(supportedTags())
)

func supportedTags() []language.Tag {
	tags := make([]language.Tag, 0, len(supportedLocales))
	for _, locale := range supportedLocales {
		tags = append(tags, Tag(locale))
	}
	return tags
}

// MatchAcceptLanguage picks the closest supported locale for an
// Accept-Language header. ok is false when nothing matched with confidence.
func MatchAcceptLanguage(header string) (enums.Locale, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	return supportedLocales[index], true
}

// Negotiate applies the request precedence: explicit query value, then the
// stored session preference, then Accept-Language, then fallback.
func Negotiate(query string, preference enums.Locale, acceptLanguage string, fallback enums.Locale) enums.Locale {
	if locale, err := enums.ParseLocale(query); err == nil {
		return locale
	}
	if preference.IsValid() {
		return preference
	}
	if locale, ok := MatchAcceptLanguage(acceptLanguage); ok {
		return locale
	}
	if fallback.IsValid() {
		return fallback
	}
	return enums.DefaultLocale
}
