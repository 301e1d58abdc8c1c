// Package i18n resolves dotted translation keys against embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embeddedLocales embed.FS

var localeTags = map[enums.Locale]language.Tag{
	enums.LocaleUzLatin:    language.MustParse("uz-Latn"),
	enums.LocaleUzCyrillic: language.MustParse("uz-Cyrl"),
	enums.LocaleRussian:    language.Russian,
}

// Tag maps a storefront locale onto its BCP 47 tag.
func Tag(locale enums.Locale) language.Tag {
	if tag, ok := localeTags[locale]; ok {
		return tag
	}
	return localeTags[enums.DefaultLocale]
}

// Bundle holds the parsed catalog tree of every locale that loaded.
type Bundle struct {
	catalogs      map[enums.Locale]map[string]any
	defaultLocale enums.Locale
}

// LoadEmbedded parses the catalogs compiled into the binary.
func LoadEmbedded(defaultLocale enums.Locale) (*Bundle, error) {
	return LoadFromFS(embeddedLocales, "locales", defaultLocale)
}

// LoadFromFS parses <dir>/<locale>.yaml for every supported locale. A locale
// whose file is missing or malformed is skipped; the default locale must load.
func LoadFromFS(fsys fs.FS, dir string, defaultLocale enums.Locale) (*Bundle, error) {
	if !defaultLocale.IsValid() {
		defaultLocale = enums.DefaultLocale
	}
	bundle := &Bundle{
		catalogs:      make(map[enums.Locale]map[string]any),
		defaultLocale: defaultLocale,
	}
	for _, locale := range enums.Locales() {
		tree, err := loadCatalog(fsys, path.Join(dir, locale.String()+".yaml"))
		if err != nil {
			if locale == defaultLocale {
				return nil, err
			}
			continue
		}
		bundle.catalogs[locale] = tree
	}
	return bundle, nil
}

func loadCatalog(fsys fs.FS, name string) (map[string]any, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", name, err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", name, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("catalog %s is empty", name)
	}
	return tree, nil
}

// DefaultLocale reports the locale used when nothing else resolves.
func (b *Bundle) DefaultLocale() enums.Locale {
	return b.defaultLocale
}

// Has reports whether the locale's catalog loaded.
func (b *Bundle) Has(locale enums.Locale) bool {
	_, ok := b.catalogs[locale]
	return ok
}

// Translator returns a resolver for locale, falling back to the default
// catalog when the locale is unknown or failed to load.
func (b *Bundle) Translator(locale enums.Locale) *Translator {
	tree, ok := b.catalogs[locale]
	if !ok {
		locale = b.defaultLocale
		tree = b.catalogs[locale]
	}
	return newTranslator(locale, tree)
}

// Locales lists the locales whose catalogs loaded, in display order.
func (b *Bundle) Locales() []enums.Locale {
	out := make([]enums.Locale, 0, len(b.catalogs))
	for _, locale := range enums.Locales() {
		if b.Has(locale) {
			out = append(out, locale)
		}
	}
	return out
}

func splitKey(key string) []string {
	return strings.Split(key, ".")
}
