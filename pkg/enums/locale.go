package enums

import (
	"fmt"
	"strings"
)

// Locale identifies one of the storefront's translation catalogs.
type Locale string

const (
	LocaleUzLatin    Locale = "uz-lat"
	LocaleUzCyrillic Locale = "uz-cyr"
	LocaleRussian    Locale = "ru"
)

// DefaultLocale is used when nothing else resolves.
const DefaultLocale = LocaleUzLatin

var validLocales = []Locale{
	LocaleUzLatin,
	LocaleUzCyrillic,
	LocaleRussian,
}

// Locales returns the supported locales in display order.
func Locales() []Locale {
	out := make([]Locale, len(validLocales))
	copy(out, validLocales)
	return out
}

// String implements fmt.Stringer.
func (l Locale) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Locale.
func (l Locale) IsValid() bool {
	for _, candidate := range validLocales {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLocale converts raw input into a Locale. Matching is case-insensitive.
func ParseLocale(value string) (Locale, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validLocales {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid locale %q", value)
}
