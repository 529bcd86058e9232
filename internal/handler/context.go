package handler

import (
	"context"
	"net/http"

	"github.com/sakif/skillgig-backend/internal/auth"
	"github.com/sakif/skillgig-backend/internal/model"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// UserResolver loads the account behind an authenticated user id.
type UserResolver interface {
	ActiveUser(ctx context.Context, userID string) (*model.User, error)
}

// LoadActiveUser runs after auth.RequireAuth: it turns the token subject into
// the stored user and rejects deleted (401) or deactivated (400) accounts.
// Handlers behind it read the user with currentUser.
func LoadActiveUser(users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Could not validate credentials",
				})
				return
			}
			user, err := users.ActiveUser(r.Context(), userID)
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser returns the user stored by LoadActiveUser. It panics when the
// route was registered without that middleware; Recoverer turns it into a 500.
func currentUser(r *http.Request) *model.User {
	u, ok := r.Context().Value(currentUserKey).(*model.User)
	if !ok {
		panic("handler: currentUser called on a route without LoadActiveUser")
	}
	return u
}
