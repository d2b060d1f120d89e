package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

const dateLayout = "2006-01-02"

type AuthHandler struct {
	accountService services.AccountServiceInterface
	authService    services.AuthServiceInterface
	secure         bool
}

func NewAuthHandler(accountService services.AccountServiceInterface, authService services.AuthServiceInterface, secure bool) *AuthHandler {
	return &AuthHandler{
		accountService: accountService,
		authService:    authService,
		secure:         secure,
	}
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	Surname     string `json:"surname"`
	Bio         string `json:"bio"`
	DateOfBirth string `json:"date_of_birth"`
	ProfilePic  string `json:"profile_pic"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if GetAccountFromContext(r.Context()) != nil {
		writeError(w, http.StatusBadRequest, "Already authenticated")
		return
	}

	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := models.CreateAccountParams{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.TrimSpace(req.Email),
		Password:       req.Password,
		FirstName:      sanitizeText(req.FirstName),
		Surname:        sanitizeText(req.Surname),
		Bio:            sanitizeText(req.Bio),
		ProfilePicPath: strings.TrimSpace(req.ProfilePic),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date of birth must be YYYY-MM-DD")
			return
		}
		params.DateOfBirth = &dob
	}

	if _, err := h.accountService.Create(r.Context(), params); err != nil {
		writeServiceError(w, err, "creating account")
		return
	}

	account, token, err := h.authService.Login(r.Context(), params.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "opening session after registration")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{Account: account, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	account, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "logging in")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{Account: account, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := SessionToken(r); token != "" {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			writeServiceError(w, err, "logging out")
			return
		}
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.authService.SessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}
