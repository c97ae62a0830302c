package middleware

import (
	"encoding/json"
	"net/http"
)

// RequireRole guards a route subtree: the request must carry a valid HS256
// bearer token whose "role" claim matches one of the allowed roles. Returns
// 401 without a valid token, 403 with one that lacks the role.
func RequireRole(jwtSecret []byte, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := parseBearer(r, jwtSecret)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized: provide a valid bearer token")
				return
			}

			role, _ := claims["role"].(string)
			if !allowed[role] {
				writeAuthError(w, http.StatusForbidden, "forbidden: insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
