package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/docpoint/docpoint-backend/pkg/config"
)

// Identity is the verified caller extracted from the bearer token. The
// booking core trusts it as-is; issuing and refreshing tokens belongs to the
// auth subsystem.
type Identity struct {
	Subject       string
	Role          string
	EmailVerified bool
}

// Roles carried in tokens
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

type identityKey struct{}

// IdentityFrom returns the verified identity stored in ctx
func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the identity. Exposed for handler
// tests.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityMiddleware verifies the Authorization bearer token and stores the
// caller identity in the request context
func IdentityMiddleware(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("Authorization")
			if tokenStr == "" {
				unauthorized(w, "authorization token is required")
				return
			}
			tokenStr = strings.TrimPrefix(tokenStr, "Bearer ")

			identity, err := verifyToken(tokenStr, cfg)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func verifyToken(tokenStr string, cfg *config.AuthConfig) (Identity, error) {
	if cfg.JWTSecret == "" {
		return Identity{}, errors.New("jwt secret not configured")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
	}
	if cfg.Issuer != "" {
		options = append(options, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, options...)
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid token claims")
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return Identity{}, errors.New("token missing subject")
	}

	role, _ := claims["role"].(string)
	emailVerified, _ := claims["email_verified"].(bool)

	return Identity{
		Subject:       subject,
		Role:          role,
		EmailVerified: emailVerified,
	}, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
