package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"auditdna/internal/domain"
)

// Actor captures who is making the request for audit attribution: client IP,
// user agent, and the subject of a valid bearer token when one is present.
// It never rejects a request; authentication decisions belong to the route
// guards.
func Actor(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := domain.Actor{
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			}
			if claims, ok := parseBearer(r, jwtSecret); ok {
				if sub, ok := claims["sub"].(string); ok {
					actor.ID = sub
				}
			}
			next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
		})
	}
}

// parseBearer validates an HS256 bearer token and returns its claims.
func parseBearer(r *http.Request, secret []byte) (jwt.MapClaims, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return nil, false
	}

	token, err := jwt.Parse(strings.TrimPrefix(auth, prefix), func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}
