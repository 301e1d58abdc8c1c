package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	adminSubject              = "admin"
)

type sessionManager interface {
	Start(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

// LoginResult is returned to the admin client after a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Authenticator checks the shared admin password and issues access tokens.
type Authenticator struct {
	adminCfg config.AdminConfig
	tokens   *pkgauth.Issuer
	sessions sessionManager
	now      func() time.Time
}

func NewAuthenticator(adminCfg config.AdminConfig, jwtCfg config.JWTConfig, sessions sessionManager) (*Authenticator, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if strings.TrimSpace(adminCfg.Password) == "" && strings.TrimSpace(adminCfg.PasswordHash) == "" {
		return nil, fmt.Errorf("admin password is required")
	}
	tokens, err := pkgauth.NewIssuer(jwtCfg)
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		adminCfg: adminCfg,
		tokens:   tokens,
		sessions: sessions,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *Authenticator) expectedSecret() string {
	if hash := strings.TrimSpace(a.adminCfg.PasswordHash); hash != "" {
		return hash
	}
	return a.adminCfg.Password
}

// Login mints an admin token when password matches, and records its jti so
// Logout can revoke it.
func (a *Authenticator) Login(ctx context.Context, password string) (*LoginResult, error) {
	if password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	ok, err := security.MatchesSecret(password, a.expectedSecret())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := a.now()
	accessID := session.NewAccessID()
	token, expiresAt, err := a.tokens.Mint(now, pkgauth.AccessTokenPayload{
		Subject: adminSubject,
		Role:    enums.ActorRoleAdmin,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := a.sessions.Start(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start admin session")
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify validates a bearer token minted by Login. Revocation is checked
// separately against the session store.
func (a *Authenticator) Verify(token string) (*pkgauth.AccessTokenClaims, error) {
	return a.tokens.Verify(token)
}

// Logout revokes the session behind the token's jti.
func (a *Authenticator) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := a.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke admin session")
	}
	return nil
}
