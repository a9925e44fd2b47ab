package api

import (
	"net/http"
	"strings"

	"aniview/services/accounts"
)

type tokenVerifier interface {
	Verify(token string) (accounts.Claims, error)
}

// authMiddleware validates the bearer token and stores the claims on the
// request context.
func authMiddleware(verifier tokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				http.Error(w, "authorization token required", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(accounts.NewContext(r.Context(), claims)))
		})
	}
}

// adminOnlyMiddleware rejects requests whose claims lack the admin flag.
// It must run behind authMiddleware.
func adminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := accounts.FromContext(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
