package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

type FriendHandler struct {
	friendshipService services.FriendshipServiceInterface
	accountService    services.AccountServiceInterface
}

func NewFriendHandler(friendshipService services.FriendshipServiceInterface, accountService services.AccountServiceInterface) *FriendHandler {
	return &FriendHandler{
		friendshipService: friendshipService,
		accountService:    accountService,
	}
}

// SendRequestRequest names the other party by ID or by username.
type SendRequestRequest struct {
	FriendID string `json:"friend_id"`
	Username string `json:"username"`
}

type FriendsResponse struct {
	Friends []models.FriendSummary `json:"friends"`
}

type InvitationsResponse struct {
	Invitations []models.Friendship `json:"invitations"`
}

type FriendshipResponse struct {
	Friendship *models.Friendship `json:"friendship"`
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, err, "listing friends")
		return
	}
	writeJSON(w, http.StatusOK, FriendsResponse{Friends: friends})
}

func (h *FriendHandler) Invitations(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	invitations, err := h.friendshipService.ListInvitationsReceived(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, err, "listing invitations")
		return
	}
	writeJSON(w, http.StatusOK, InvitationsResponse{Invitations: invitations})
}

func (h *FriendHandler) SentInvitations(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	invitations, err := h.friendshipService.ListInvitationsSent(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, err, "listing sent invitations")
		return
	}
	writeJSON(w, http.StatusOK, InvitationsResponse{Invitations: invitations})
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var friendID uuid.UUID
	switch {
	case req.FriendID != "":
		id, err := uuid.Parse(req.FriendID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid friend ID")
			return
		}
		friendID = id
	case strings.TrimSpace(req.Username) != "":
		other, err := h.accountService.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil {
			writeServiceError(w, err, "looking up friend")
			return
		}
		friendID = other.ID
	default:
		writeError(w, http.StatusBadRequest, "friend_id or username is required")
		return
	}

	friendship, err := h.friendshipService.Initiate(r.Context(), account.ID, friendID)
	if err != nil {
		writeServiceError(w, err, "sending friend request")
		return
	}
	writeJSON(w, http.StatusCreated, FriendshipResponse{Friendship: friendship})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendship ID")
		return
	}

	friendship, err := h.friendshipService.Accept(r.Context(), friendshipID, account.ID)
	if err != nil {
		writeServiceError(w, err, "accepting friend request")
		return
	}
	writeJSON(w, http.StatusOK, FriendshipResponse{Friendship: friendship})
}

// Remove revokes a friendship in any state: it declines or cancels an
// invitation, or unfriends.
func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friendshipID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friendship ID")
		return
	}

	if err := h.friendshipService.Revoke(r.Context(), friendshipID, account.ID); err != nil {
		writeServiceError(w, err, "removing friendship")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friendship removed"})
}
