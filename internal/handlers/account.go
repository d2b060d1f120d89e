package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

type AccountHandler struct {
	accountService services.AccountServiceInterface
}

func NewAccountHandler(accountService services.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	Surname     *string `json:"surname"`
	Bio         *string `json:"bio"`
	DateOfBirth *string `json:"date_of_birth"`
	ProfilePic  *string `json:"profile_pic"`
}

// GetProfile returns the public profile of the named account. Emails are never
// exposed here, even to the account itself.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}

	account, err := h.accountService.GetByUsername(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "getting profile")
		return
	}
	writeJSON(w, http.StatusOK, account.Profile())
}

func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	params := models.UpdateProfileParams{
		FirstName: sanitizeOptional(req.FirstName),
		Surname:   sanitizeOptional(req.Surname),
		Bio:       sanitizeOptional(req.Bio),
	}
	if req.ProfilePic != nil {
		path := strings.TrimSpace(*req.ProfilePic)
		params.ProfilePicPath = &path
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Date of birth must be YYYY-MM-DD")
			return
		}
		params.DateOfBirth = &dob
	}

	updated, err := h.accountService.UpdateProfile(r.Context(), account.ID, params)
	if err != nil {
		writeServiceError(w, err, "updating profile")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
