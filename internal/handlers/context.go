package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/logging"
	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

const sessionCookieName = "session_token"

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

type contextKey string

const (
	accountContextKey contextKey = "account"
	tokenContextKey   contextKey = "session_token"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func SetAccountInContext(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

func GetAccountFromContext(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountContextKey).(*models.Account)
	return account
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// viewerID returns the authenticated account's ID, or nil for anonymous
// requests.
func viewerID(ctx context.Context) *uuid.UUID {
	account := GetAccountFromContext(ctx)
	if account == nil {
		return nil
	}
	id := account.ID
	return &id
}

// SessionToken reads the token from an "Authorization: Bearer" header, then
// from the session cookie.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Error encoding response", map[string]interface{}{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func parsePathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

// writeServiceError maps a service error onto a status code. Anything it does
// not recognise is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
	case errors.Is(err, services.ErrUnsupportedMedia):
		writeError(w, http.StatusBadRequest, "Unsupported media type")
	case errors.Is(err, services.ErrCannotFriendSelf):
		writeError(w, http.StatusBadRequest, "Cannot send a friend request to yourself")
	case errors.Is(err, services.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "Username already taken")
	case errors.Is(err, services.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, services.ErrAuthenticationFailed):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "Not allowed")
	case errors.Is(err, services.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "Account not found")
	case errors.Is(err, services.ErrFriendshipNotFound):
		writeError(w, http.StatusNotFound, "Friendship not found")
	case errors.Is(err, services.ErrPostNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, services.ErrMediaNotFound):
		writeError(w, http.StatusNotFound, "Media not found")
	default:
		logging.Error("Error "+op, map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
