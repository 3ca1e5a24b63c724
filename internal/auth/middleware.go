package auth

import (
	"context"
	"fmt"
	"net/http"

	"eventx-ticketing/internal/apperror"
	"eventx-ticketing/internal/config"
	"eventx-ticketing/internal/logger"
	"eventx-ticketing/internal/models"
	"eventx-ticketing/internal/utils"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the caller attached to the request context.
type Identity struct {
	UserID string
	Role   string
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (Identity, error)
}

// HMACVerifier accepts HS256 tokens signed with the shared secret.
type HMACVerifier struct {
	Secret string
}

func (v HMACVerifier) Verify(_ context.Context, rawToken string) (Identity, error) {
	claims, err := ParseToken(v.Secret, rawToken)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// OIDCVerifier accepts ID tokens from an external issuer. The role comes from a
// "role" claim, falling back to realm roles.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, issuer string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	// SkipClientIDCheck: tokens are minted for the frontend client, not this service.
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, err
	}
	var claims struct {
		Sub         string `json:"sub"`
		Role        string `json:"role"`
		RealmAccess struct {
			Roles []string `json:"roles"`
		} `json:"realm_access"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse claims: %w", err)
	}
	role := claims.Role
	if role == "" {
		role = models.RoleUser
		for _, r := range claims.RealmAccess.Roles {
			if r == models.RoleAdmin {
				role = models.RoleAdmin
			}
		}
	}
	return Identity{UserID: claims.Sub, Role: role}, nil
}

// NewVerifier picks OIDC when an issuer is configured and the shared secret otherwise.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (Verifier, error) {
	if cfg.OIDCIssuer != "" {
		return NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET or OIDC_ISSUER must be set")
	}
	return HMACVerifier{Secret: cfg.JWTSecret}, nil
}

// Middleware rejects requests without a valid bearer token and stores the caller's identity.
func Middleware(v Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, log, "AUTH", apperror.Unauthorized("No token, authorization denied"))
				return
			}

			identity, err := v.Verify(r.Context(), rawToken)
			if err != nil {
				if log != nil {
					log.LogSecurity("TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				}
				utils.WriteError(w, log, "AUTH", apperror.Unauthorized("Token is not valid"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole lets only callers with role through. Must run after Middleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Role(r.Context()) != role {
				utils.WriteError(w, nil, "AUTH", apperror.Forbidden("Access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id.UserID
	}
	return ""
}

func Role(ctx context.Context) string {
	if id, ok := ctx.Value(identityKey).(Identity); ok {
		return id.Role
	}
	return ""
}
