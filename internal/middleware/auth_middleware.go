package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/skillswap/client/internal/auth"
	"github.com/skillswap/client/pkg/response"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	EmailKey  contextKey = "email"
)

var (
	errNoCredentials = errors.New("Authentication required")
	errBadScheme     = errors.New("Invalid authorization header format")
)

// AuthMiddleware requires a valid bearer token and puts the member id and
// email on the request context. Every rejection is a 401 so clients can
// tell it apart from a business error.
func AuthMiddleware(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			claims, err := jwtManager.ValidateToken(token)
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				response.Unauthorized(w, "Session has expired, please log in again")
				return
			case err != nil:
				response.Unauthorized(w, "Invalid token")
				return
			}

			if u, ok := r.Context().Value(requestUserKey).(*requestUser); ok {
				u.id = claims.UserID
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", errBadScheme
	}
	return token, nil
}

func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}
