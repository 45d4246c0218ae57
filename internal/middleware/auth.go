package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mmynk/recipes/internal/auth"
	"github.com/mmynk/recipes/internal/models"
)

type contextKey struct{}

var userKey contextKey

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User returns the authenticated user, or nil outside RequireAuth.
func User(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// GetUserID returns the authenticated user's ID, or 0 outside RequireAuth.
func GetUserID(ctx context.Context) int64 {
	if user := User(ctx); user != nil {
		return user.ID
	}
	return 0
}

// UserLoader resolves the user behind a verified token.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// RequireAuth rejects requests without a valid "Bearer <token>" or
// "Token <token>" header with 401. The token's user is reloaded on every
// request, so deactivated accounts lose access before their tokens expire.
func RequireAuth(tokens *auth.TokenIssuer, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				unauthorized(w, err)
				return
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					slog.Error("Failed to load token user", "user_id", userID, "error", err)
				}
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || (scheme != "Bearer" && scheme != "Token") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": err.Error()})
}
