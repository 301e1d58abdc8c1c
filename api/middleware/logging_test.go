package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, accessLevel("/api/v1/checkout/submit", http.StatusServiceUnavailable))
	assert.Equal(t, zerolog.WarnLevel, accessLevel("/api/v1/cart/items", http.StatusBadRequest))
	assert.Equal(t, zerolog.DebugLevel, accessLevel("/health/live", http.StatusOK))
	assert.Equal(t, zerolog.DebugLevel, accessLevel("/metrics", http.StatusOK))
	assert.Equal(t, zerolog.InfoLevel, accessLevel("/api/v1/products", http.StatusOK))
}

func TestLoggingRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf, Format: logger.FormatJSON})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Get("/api/v1/products/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{}}`))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/abc", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request.complete", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/api/v1/products/{productId}", entry["route"])
	assert.Equal(t, "/api/v1/products/abc", entry["path"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, float64(12), entry["bytes"])
}
