package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/httputil"
)

type contextKey string

const ContextUserID contextKey = "user_id"

type Middleware struct {
	issuer *TokenIssuer
}

func NewMiddleware(issuer *TokenIssuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// RequireAuth validates the bearer token and stores the user id on the
// request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		userID, err := m.issuer.Verify(token)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user id, or uuid.Nil when
// the request was not authenticated.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextUserID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	// Websocket clients cannot set headers; they pass the token in the
	// query string.
	return r.URL.Query().Get("token")
}
