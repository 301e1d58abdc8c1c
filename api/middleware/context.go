package middleware

import "context"

type contextKey uint8

const (
	ctxSessionID contextKey = iota
	ctxRole
	ctxAccessID
	ctxRequestID
)

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// SessionIDFromContext returns the storefront session set by Session.
func SessionIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxSessionID)
}

// RoleFromContext returns the actor role set by Auth.
func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

// AccessIDFromContext returns the jti of the admin token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRequestID)
}

// WithSessionID injects the storefront session identifier.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// WithRole and WithAccessID exist for handler tests that skip Auth.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxRole, role)
}

func WithAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}
