package i18n

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
)

func TestMatchAcceptLanguage(t *testing.T) {
	locale, ok := MatchAcceptLanguage("ru-RU,ru;q=0.9,en;q=0.8")
	assert.True(t, ok)
	assert.Equal(t, enums.LocaleRussian, locale)

	locale, ok = MatchAcceptLanguage("uz-Cyrl")
	assert.True(t, ok)
	assert.Equal(t, enums.LocaleUzCyrillic, locale)

	_, ok = MatchAcceptLanguage("")
	assert.False(t, ok)

	_, ok = MatchAcceptLanguage("ja")
	assert.False(t, ok)
}

func TestNegotiatePrecedence(t *testing.T) {
	assert.Equal(t, enums.LocaleUzCyrillic, Negotiate("UZ-CYR", enums.LocaleRussian, "ru", enums.LocaleUzLatin))
	assert.Equal(t, enums.LocaleRussian, Negotiate("xx", enums.LocaleRussian, "uz-Cyrl", enums.LocaleUzLatin))
	assert.Equal(t, enums.LocaleUzCyrillic, Negotiate("", "", "uz-Cyrl", enums.LocaleUzLatin))
	assert.Equal(t, enums.LocaleUzLatin, Negotiate("", "", "", enums.LocaleUzLatin))
	assert.Equal(t, enums.DefaultLocale, Negotiate("", "", "", ""))
}
