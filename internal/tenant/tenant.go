// Package tenant carries the caller's account identity through a request.
//
// Authentication happens upstream; the gateway forwards the resolved account
// in the X-Account-ID header and this package only moves it into the context.
package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// HeaderAccountID is set by the authenticating gateway.
const HeaderAccountID = "X-Account-ID"

type contextKey struct{}

// ErrNoAccount is returned when a request carries no account identity.
var ErrNoAccount = errors.New("no account in context")

// WithAccount returns a context carrying accountID.
func WithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, contextKey{}, accountID)
}

// AccountID extracts the account from ctx.
func AccountID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// RequireAccount is AccountID returning ErrNoAccount when absent.
func RequireAccount(ctx context.Context) (string, error) {
	id, ok := AccountID(ctx)
	if !ok {
		return "", ErrNoAccount
	}
	return id, nil
}

// Middleware rejects requests without an account header and stores the
// account in the request context for downstream handlers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID := strings.TrimSpace(r.Header.Get(HeaderAccountID))
		if accountID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing account"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), accountID)))
	})
}

// LocalDevMiddleware pins every request to a fixed account. It is only wired
// when the server runs without an authenticating gateway.
func LocalDevMiddleware(accountID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get(HeaderAccountID)) == "" {
				r.Header.Set(HeaderAccountID, accountID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
