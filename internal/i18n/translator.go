package i18n

import (
	"regexp"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"golang.org/x/text/message"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Translator resolves keys against one locale's catalog.
type Translator struct {
	locale  enums.Locale
	tree    map[string]any
	printer *message.Printer
}

func newTranslator(locale enums.Locale, tree map[string]any) *Translator {
	return &Translator{
		locale:  locale,
		tree:    tree,
		printer: message.NewPrinter(Tag(locale)),
	}
}

// Locale reports the catalog actually in use.
func (t *Translator) Locale() enums.Locale {
	return t.locale
}

// Resolve walks the dotted key and interpolates {name} placeholders from
// params. A missing segment or a non-string leaf yields the key itself.
// Placeholders without a matching param are left as written.
func (t *Translator) Resolve(key string, params map[string]any) string {
	var node any = t.tree
	for _, segment := range splitKey(key) {
		branch, ok := node.(map[string]any)
		if !ok {
			return key
		}
		next, ok := branch[segment]
		if !ok {
			return key
		}
		node = next
	}

	value, ok := node.(string)
	if !ok || value == "" {
		return key
	}
	if len(params) == 0 {
		return value
	}
	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[1 : len(match)-1]
		param, ok := params[name]
		if !ok || param == nil {
			return match
		}
		return t.printer.Sprint(param)
	})
}

// T resolves a typed key.
func (t *Translator) T(key Key, params map[string]any) string {
	return t.Resolve(string(key), params)
}

// Messages returns the raw catalog tree for clients that resolve locally.
func (t *Translator) Messages() map[string]any {
	return t.tree
}
