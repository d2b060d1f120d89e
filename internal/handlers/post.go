package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

type PostHandler struct {
	postService    services.PostServiceInterface
	accountService services.AccountServiceInterface
}

func NewPostHandler(postService services.PostServiceInterface, accountService services.AccountServiceInterface) *PostHandler {
	return &PostHandler{
		postService:    postService,
		accountService: accountService,
	}
}

type CreatePostRequest struct {
	Body   string   `json:"body"`
	Media  string   `json:"media"`
	Public bool     `json:"public"`
	Tags   []string `json:"tags"`
}

type TagRequest struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

type PostResponse struct {
	Post  *models.Post `json:"post"`
	Likes int          `json:"likes"`
}

type PostsResponse struct {
	Posts []models.Post `json:"posts"`
}

type AccountsResponse struct {
	Accounts []models.AccountSummary `json:"accounts"`
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tags := make([]uuid.UUID, 0, len(req.Tags))
	for _, raw := range req.Tags {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tag ID")
			return
		}
		tags = append(tags, id)
	}

	post, err := h.postService.Create(r.Context(), models.CreatePostParams{
		AuthorID:  account.ID,
		Body:      sanitizeText(req.Body),
		MediaPath: strings.TrimSpace(req.Media),
		Public:    req.Public,
		Tags:      tags,
	})
	if err != nil {
		writeServiceError(w, err, "creating post")
		return
	}
	writeJSON(w, http.StatusCreated, PostResponse{Post: post})
}

// Get returns a post the caller may see. Posts hidden from the caller are
// reported as missing.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	likes, err := h.postService.LikeCount(r.Context(), post.ID)
	if err != nil {
		writeServiceError(w, err, "counting likes")
		return
	}
	writeJSON(w, http.StatusOK, PostResponse{Post: post, Likes: likes})
}

func (h *PostHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	authorID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	posts, err := h.postService.VisiblePosts(r.Context(), authorID, viewerID(r.Context()))
	if err != nil {
		writeServiceError(w, err, "listing posts")
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

// Tagged lists the posts an account is tagged in. The account itself sees all
// of them; anyone else sees only the ones visible to them.
func (h *PostHandler) Tagged(w http.ResponseWriter, r *http.Request) {
	accountID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	viewer := viewerID(r.Context())
	var posts []models.Post
	if viewer != nil && *viewer == accountID {
		posts, err = h.postService.PostsTagging(r.Context(), accountID)
	} else {
		posts, err = h.postService.VisiblePostsTagging(r.Context(), accountID, viewer)
	}
	if err != nil {
		writeServiceError(w, err, "listing tagged posts")
		return
	}
	writeJSON(w, http.StatusOK, PostsResponse{Posts: posts})
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	postID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	if err := h.postService.AddLike(r.Context(), postID, account.ID); err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			writeError(w, http.StatusNotFound, "Post not found")
			return
		}
		writeServiceError(w, err, "liking post")
		return
	}

	likes, err := h.postService.LikeCount(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err, "counting likes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": likes})
}

func (h *PostHandler) Likes(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	accounts, err := h.postService.LikesOf(r.Context(), post.ID)
	if err != nil {
		writeServiceError(w, err, "listing likes")
		return
	}
	writeJSON(w, http.StatusOK, AccountsResponse{Accounts: accounts})
}

// Tag adds a tag to a post. Only the post's author may tag people in it.
func (h *PostHandler) Tag(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}
	postID := post.ID

	var req TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if post.AuthorID != account.ID {
		writeError(w, http.StatusForbidden, "Only the author can tag people in a post")
		return
	}

	var taggedID uuid.UUID
	switch {
	case req.AccountID != "":
		id, err := uuid.Parse(req.AccountID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid account ID")
			return
		}
		taggedID = id
	case strings.TrimSpace(req.Username) != "":
		tagged, err := h.accountService.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil {
			writeServiceError(w, err, "looking up tagged account")
			return
		}
		taggedID = tagged.ID
	default:
		writeError(w, http.StatusBadRequest, "account_id or username is required")
		return
	}

	if err := h.postService.AddTag(r.Context(), postID, taggedID); err != nil {
		writeServiceError(w, err, "tagging post")
		return
	}

	accounts, err := h.postService.TagsOf(r.Context(), postID)
	if err != nil {
		writeServiceError(w, err, "listing tags")
		return
	}
	writeJSON(w, http.StatusOK, AccountsResponse{Accounts: accounts})
}

func (h *PostHandler) Tags(w http.ResponseWriter, r *http.Request) {
	post, ok := h.visiblePost(w, r)
	if !ok {
		return
	}

	accounts, err := h.postService.TagsOf(r.Context(), post.ID)
	if err != nil {
		writeServiceError(w, err, "listing tags")
		return
	}
	writeJSON(w, http.StatusOK, AccountsResponse{Accounts: accounts})
}

func (h *PostHandler) visiblePost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	postID, err := parsePathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return nil, false
	}

	post, err := h.postService.GetVisible(r.Context(), postID, viewerID(r.Context()))
	if errors.Is(err, services.ErrUnauthorized) {
		writeError(w, http.StatusNotFound, "Post not found")
		return nil, false
	}
	if err != nil {
		writeServiceError(w, err, "getting post")
		return nil, false
	}
	return post, true
}
