package httpapi

import (
	"context"
	"net/http"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/server/auth"
)

type contextKey string

const claimsContextKey contextKey = "sessionClaims"

// sessionMiddleware authenticates the request from the session cookie and
// makes the parsed claims available downstream. Everything under /api sits
// behind it.
func (a *API) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(common.SessionCookieName)
		if err != nil {
			writeError(w, common.ErrUnauthorized)
			return
		}

		claims, err := auth.ParseToken(cookie.Value, a.jwtSecret)
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims
}

// deviceID extracts the opaque device tag; an absent header means no device
// filtering.
func deviceID(r *http.Request) string {
	return r.Header.Get(common.DeviceIDHeaderName)
}
