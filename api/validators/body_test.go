package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productPayload struct {
	Name   string   `json:"name" validate:"required,max=5"`
	Images []string `json:"additional_images" validate:"omitempty,dive,http_url"`
}

func decode(t *testing.T, body string) (productPayload, *pkgerrors.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var payload productPayload
	err := DecodeJSONBody(req, &payload)
	if err == nil {
		return payload, nil
	}
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	return payload, typed
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	payload, err := decode(t, `{"name":"Choy","additional_images":["https://cdn.example.com/a.png"]}`)
	require.Nil(t, err)
	assert.Equal(t, "Choy", payload.Name)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
	}{
		"empty":         {``, "request body required"},
		"unknown field": {`{"name":"a","color":"red"}`, "invalid request body"},
		"trailing":      {`{"name":"a"}{"name":"b"}`, "request body must contain a single JSON object"},
		"too large":     {`{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, "request body too large"},
		"validation":    {`{"name":"toolong","additional_images":["not a url"]}`, "validation failed"},
	}
	for name, tc := range cases {
		_, err := decode(t, tc.body)
		require.NotNil(t, err, name)
		assert.Equal(t, pkgerrors.CodeValidation, err.Code(), name)
		assert.Equal(t, tc.message, err.Message(), name)
	}

	_, err := decode(t, `{"additional_images":["ftp://x"]}`)
	require.NotNil(t, err)
	assert.Equal(t, map[string]string{
		"name":                 "is required",
		"additional_images[0]": "must be an absolute URL",
	}, err.Details())
}
