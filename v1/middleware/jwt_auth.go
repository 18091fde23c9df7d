package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codelens-platform/quality-server-go/shared/utils"
	"github.com/golang-jwt/jwt/v5"
)

// AuthenticatedUser carries the identity extracted from a validated token
type AuthenticatedUser struct {
	Subject string
	Roles   []string
}

// userContextKey is the context key for the authenticated user
type userContextKey struct{}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(*AuthenticatedUser)
	return user, ok
}

// JWTAuthMiddleware validates HS256 bearer tokens on protected routes
type JWTAuthMiddleware struct {
	secret         []byte
	expectedIssuer string
}

// JWTAuthConfig contains configuration for JWT authentication
type JWTAuthConfig struct {
	Secret         string
	ExpectedIssuer string
}

// NewJWTAuthMiddleware creates a new JWT authentication middleware
func NewJWTAuthMiddleware(config JWTAuthConfig) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret:         []byte(config.Secret),
		expectedIssuer: config.ExpectedIssuer,
	}
}

// AuthenticateJWT returns a middleware function that validates bearer tokens
func (j *JWTAuthMiddleware) AuthenticateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := extractBearerToken(r)
		if err != nil {
			slog.Warn("Failed to extract bearer token", "error", err, "path", r.URL.Path, "method", r.Method)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or missing authorization header")
			return
		}

		user, err := j.validateToken(tokenString)
		if err != nil {
			slog.Warn("Token validation failed", "error", err, "path", r.URL.Path, "method", r.Method)
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validateToken parses and validates an HS256 token and extracts the user.
// An empty secret rejects every token.
func (j *JWTAuthMiddleware) validateToken(tokenString string) (*AuthenticatedUser, error) {
	if len(j.secret) == 0 {
		return nil, fmt.Errorf("no signing secret configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	if j.expectedIssuer != "" {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != j.expectedIssuer {
			return nil, fmt.Errorf("unexpected issuer")
		}
	}

	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil || exp.Before(time.Now()) {
		return nil, fmt.Errorf("token is expired")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	user := &AuthenticatedUser{Subject: subject}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok {
				user.Roles = append(user.Roles, role)
			}
		}
	}
	return user, nil
}

// extractBearerToken pulls the token out of the Authorization header
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("authorization header is not a bearer token")
	}
	return parts[1], nil
}
