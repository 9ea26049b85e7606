package api

import (
	"context"
	"net/http"

	"github.com/companionlabs/companion/internal/api/respond"
	"github.com/companionlabs/companion/internal/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthMiddleware resolves the bearer key once per request and stores the
// principal in the request context.
func AuthMiddleware(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := auth.ExtractAPIKey(r)
			if err != nil {
				respond.WriteUnauthorized(w, err.Error())
				return
			}
			p, err := authorizer.Authorize(r.Context(), apiKey, r.Method+" "+r.URL.Path)
			if err != nil {
				respond.WriteUnauthorized(w, "invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
		})
	}
}

// PrincipalFrom returns the authenticated principal stored by AuthMiddleware.
func PrincipalFrom(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(*auth.Principal)
	return p, ok
}
