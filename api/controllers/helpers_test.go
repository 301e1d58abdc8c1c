package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/i18n"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

type memoryPrefs struct {
	locales map[string]enums.Locale
	err     error
}

func newMemoryPrefs() *memoryPrefs {
	return &memoryPrefs{locales: map[string]enums.Locale{}}
}

func (m *memoryPrefs) Get(_ context.Context, sessionID string) (enums.Locale, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.locales[sessionID], nil
}

func (m *memoryPrefs) Set(_ context.Context, sessionID string, locale enums.Locale) error {
	if m.err != nil {
		return m.err
	}
	m.locales[sessionID] = locale
	return nil
}

func newTestLocalizer(t *testing.T, prefs localePreferences) *Localizer {
	t.Helper()
	bundle, err := i18n.LoadEmbedded(enums.DefaultLocale)
	require.NoError(t, err)
	return NewLocalizer(bundle, prefs, nil)
}

func newRequest(t *testing.T, method, target, sessionID string, body any, params map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := req.Context()
	if sessionID != "" {
		ctx = middleware.WithSessionID(ctx, sessionID)
	}
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func decodeDataBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}
