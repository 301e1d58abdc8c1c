package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
)

// IdempotencyPolicy names a mutating route that must carry an
// Idempotency-Key and how long its first answer is replayed.
type IdempotencyPolicy struct {
	Name string
	TTL  time.Duration
}

var (
	CheckoutSubmitPolicy = IdempotencyPolicy{Name: "checkout-submit", TTL: 7 * 24 * time.Hour}
	OrderCompletePolicy  = IdempotencyPolicy{Name: "order-complete", TTL: 24 * time.Hour}
)

// claimTTL bounds how long an unfinished first request holds its key.
const claimTTL = time.Minute

type replayRecord struct {
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// Idempotency answers a repeated key with the stored response instead of
// running the handler again. The first request claims the key before the
// handler runs, so a concurrent duplicate is turned away rather than raced.
// Keys are scoped to the caller (session and admin token) and the request
// path. 5xx answers release the claim so the client can retry under the same
// key. A nil store disables the guard.
func Idempotency(store pkgredis.ReplayStore, policy IdempotencyPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, IdempotencyKeyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(replayScope(r, policy), clientKey)
			fingerprint := fingerprintBody(body)

			claimed, err := store.SaveJSONNX(ctx, key, replayRecord{Pending: true, Fingerprint: fingerprint}, claimTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				replayPrevious(ctx, store, key, fingerprint, policy, logg, w)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			logCtx := ctx
			if logg != nil {
				logCtx = logg.WithField(ctx, "policy", policy.Name)
			}
			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(context.WithoutCancel(ctx), key); err != nil && logg != nil {
					logg.Error(logCtx, "release idempotency key", err)
				}
				return
			}
			record := replayRecord{
				Status:      capture.statusCode(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
				Fingerprint: fingerprint,
			}
			if err := store.SaveJSON(context.WithoutCancel(ctx), key, record, policy.TTL); err != nil && logg != nil {
				logg.Error(logCtx, "persist idempotency record", err)
			}
		})
	}
}

func replayPrevious(ctx context.Context, store pkgredis.ReplayStore, key, fingerprint string, policy IdempotencyPolicy, logg *logger.Logger, w http.ResponseWriter) {
	var previous replayRecord
	found, err := store.LoadJSON(ctx, key, &previous)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotency record"))
		return
	}
	details := map[string]any{"policy": policy.Name}
	switch {
	case !found:
		// claim expired or released between the two calls
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key is being released, retry the request").WithDetails(details))
	case previous.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body").WithDetails(details))
	case previous.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still in progress").WithDetails(details))
	default:
		previous.replay(w)
	}
}

func replayScope(r *http.Request, policy IdempotencyPolicy) string {
	ctx := r.Context()
	return strings.Join([]string{policy.Name, SessionIDFromContext(ctx), AccessIDFromContext(ctx), r.URL.Path}, "|")
}

func fingerprintBody(body []byte) string {
	sum := sha256.Sum256(bytes.TrimSpace(body))
	return hex.EncodeToString(sum[:])
}

func (rec replayRecord) replay(w http.ResponseWriter) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
