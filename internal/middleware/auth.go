package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ShiplakeCS/fakebook/internal/handlers"
	"github.com/ShiplakeCS/fakebook/internal/logging"
	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.Account, error)
}

type AuthMiddleware struct {
	sessions SessionValidator
}

func NewAuthMiddleware(sessions SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate attaches the session's account to the request context when a
// valid token is presented. Requests without one continue anonymously.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := handlers.SessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		account, err := m.sessions.ValidateSession(r.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrSessionNotFound) {
				logging.Warn("Session validation failed", map[string]interface{}{"error": err.Error()})
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := handlers.SetAccountInContext(r.Context(), account)
		ctx = handlers.SetTokenInContext(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetAccountFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
