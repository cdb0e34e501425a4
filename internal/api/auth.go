package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jeiary/jeiary/internal/storage"
)

// UserResolver maps bearer tokens to accounts.
type UserResolver interface {
	UserByToken(token string) (storage.User, error)
}

type ctxKey int

const userKey ctxKey = 0

// TokenAuth resolves the Authorization bearer token to a user and injects
// the account into the request context. Requests without a valid token get
// 401 with a JSON error body.
func TokenAuth(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				httpError(w, http.StatusUnauthorized, "invalid_request_error", "missing bearer token")
				return
			}

			user, err := users.UserByToken(token)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					httpError(w, http.StatusUnauthorized, "invalid_request_error", "invalid token")
					return
				}
				httpError(w, http.StatusInternalServerError, "api_error", "authenticating request: %v", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
		})
	}
}

// requestUser returns the authenticated account placed by TokenAuth.
func requestUser(r *http.Request) storage.User {
	user, _ := r.Context().Value(userKey).(storage.User)
	return user
}
