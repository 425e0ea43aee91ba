package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type principalKey struct{}

// WithPrincipal stores the principal name in the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, principalKey{}, name)
}

// PrincipalFromContext extracts the principal name from the context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(principalKey{}).(string)
	return name, ok
}

// Auth tries a JWT Bearer token first, then a static API key. Returns 401 when
// both fail. API keys are compared by SHA-256 digest in constant time; a key
// authenticates as the principal "api-key".
func Auth(jwtSecret []byte, apiKeys []string) func(http.Handler) http.Handler {
	keyHashes := make([][32]byte, len(apiKeys))
	for i, k := range apiKeys {
		keyHashes[i] = sha256.Sum256([]byte(k))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try JWT Bearer token
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && len(jwtSecret) > 0 {
				tokenStr := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
					return jwtSecret, nil
				}, jwt.WithValidMethods([]string{"HS256"}))

				if err == nil && token.Valid {
					if claims, ok := token.Claims.(jwt.MapClaims); ok {
						if sub, ok := claims["sub"].(string); ok && sub != "" {
							ctx := WithPrincipal(r.Context(), sub)
							next.ServeHTTP(w, r.WithContext(ctx))
							return
						}
					}
				}
			}

			// Try API key
			if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
				hash := sha256.Sum256([]byte(apiKey))
				for i := range keyHashes {
					if subtle.ConstantTimeCompare(hash[:], keyHashes[i][:]) == 1 {
						ctx := WithPrincipal(r.Context(), "api-key")
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			// Both methods failed
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code":    401,
				"message": "unauthorized: provide a valid JWT Bearer token or API key",
			})
		})
	}
}
