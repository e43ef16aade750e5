// Package middleware holds the HTTP middleware chain shared by the gateway
// and the backend services.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

// userKey carries the authenticated user's email through the request context.
const userKey contextKey = "user"

// UserFromContext returns the authenticated email set by Auth, if any.
func UserFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userKey).(string)
	return email, ok
}

// Auth validates the bearer token on every request except the listed paths
// and stores the token's email claim in the request context.
func Auth(secret []byte, log *logrus.Logger, skipPaths ...string) mux.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, `{"message":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			email, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
			if err != nil {
				log.WithError(err).Debug("token rejected")
				http.Error(w, `{"message":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			r.Header.Set("X-User-ID", email)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, email)))
		})
	}
}

func parseToken(raw string, secret []byte) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("token missing email claim")
	}
	return email, nil
}
