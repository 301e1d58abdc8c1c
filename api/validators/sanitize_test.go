package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStringCountsRunes(t *testing.T) {
	assert.Equal(t, "Чой", SanitizeString("  Чойхона ", 3))
	assert.Equal(t, "tea", SanitizeString(" tea ", 0))
	assert.Equal(t, "a", SanitizeString("a bc", 2))
}

func TestSanitizePhone(t *testing.T) {
	assert.Equal(t, "+998 90 111 2233", SanitizePhone("\t+998  90\n111 22\x0033 ", 32))
	assert.Equal(t, "", SanitizePhone(" \r\n ", 32))
	assert.Equal(t, "+99890", SanitizePhone("+998901112233", 6))
}
