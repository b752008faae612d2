package middleware

import (
	"context"
	"net/http"

	"github.com/vasapolrittideah/bookstore-api/shared/utilities"
)

type contextKey struct{}

// UserIDKey is the request context key holding the authenticated user id.
var UserIDKey = contextKey{}

// TokenVerifier resolves a bearer token to the user id it was issued to.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewJWTMiddleware rejects requests without a valid bearer token and stores the
// caller's user id in the request context.
func NewJWTMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := utilities.BearerToken(r)
			if err != nil {
				_ = utilities.WriteJSON(w, http.StatusUnauthorized, errorBody{
					Message: "not authorized, no token",
				})
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				_ = utilities.WriteJSON(w, http.StatusUnauthorized, errorBody{
					Message: "not authorized, token failed",
				})
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
