package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/livepaste/backend/internal/service/auth"
	"github.com/livepaste/backend/pkg/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// RequireAuth validates the Bearer token on owner-restricted routes and puts
// the authenticated principal into the request context.
func RequireAuth(authSvc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				utils.RespondError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			principal, err := authSvc.VerifyToken(parts[1])
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the authenticated user set by RequireAuth, if any.
func Principal(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(principalKey).(string)
	return principal, ok
}
