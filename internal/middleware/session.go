package middleware

import (
	"context"
	"net/http"
	"strings"

	"bloodLink/internal/domain"
)

const (
	UserIDHeader    = "X-User-ID"
	UserNameHeader  = "X-User-Name"
	UserPhoneHeader = "X-User-Phone"
)

type sessionKey struct{}

// Session copies the identity headers set by the gateway into the request context.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := domain.Session{
			UserID: strings.TrimSpace(r.Header.Get(UserIDHeader)),
			Name:   strings.TrimSpace(r.Header.Get(UserNameHeader)),
			Phone:  strings.TrimSpace(r.Header.Get(UserPhoneHeader)),
		}
		if s.UserID != "" {
			r = r.WithContext(WithSession(r.Context(), s))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests that carry no user identity.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok && s.UserID != ""
}
