package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
	"github.com/ShiplakeCS/fakebook/internal/services"
)

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d (body %s)", status, rr.Code, rr.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response: %v", err)
	}
	if resp.Error != message {
		t.Fatalf("expected error %q, got %q", message, resp.Error)
	}
}

func withAccount(req *http.Request, account *models.Account) *http.Request {
	return req.WithContext(SetAccountInContext(req.Context(), account))
}

type mockAccountService struct {
	services.AccountServiceInterface
	CreateFunc        func(ctx context.Context, params models.CreateAccountParams) (*models.Account, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*models.Account, error)
	UpdateProfileFunc func(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.Account, error)
}

func (m *mockAccountService) Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockAccountService) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return m.GetByUsernameFunc(ctx, username)
}

func (m *mockAccountService) UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.Account, error) {
	return m.UpdateProfileFunc(ctx, id, params)
}

type mockAuthService struct {
	services.AuthServiceInterface
	LoginFunc  func(ctx context.Context, email, password string) (*models.Account, string, error)
	LogoutFunc func(ctx context.Context, token string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	return m.LogoutFunc(ctx, token)
}

func (m *mockAuthService) SessionTTL() time.Duration {
	return time.Hour
}

type mockFriendshipService struct {
	services.FriendshipServiceInterface
	InitiateFunc                func(ctx context.Context, initiator, recipient uuid.UUID) (*models.Friendship, error)
	AcceptFunc                  func(ctx context.Context, friendshipID, actorID uuid.UUID) (*models.Friendship, error)
	RevokeFunc                  func(ctx context.Context, friendshipID, actorID uuid.UUID) error
	ListFriendsFunc             func(ctx context.Context, accountID uuid.UUID) ([]models.FriendSummary, error)
	ListInvitationsReceivedFunc func(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error)
	ListInvitationsSentFunc     func(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error)
}

func (m *mockFriendshipService) Initiate(ctx context.Context, initiator, recipient uuid.UUID) (*models.Friendship, error) {
	return m.InitiateFunc(ctx, initiator, recipient)
}

func (m *mockFriendshipService) Accept(ctx context.Context, friendshipID, actorID uuid.UUID) (*models.Friendship, error) {
	return m.AcceptFunc(ctx, friendshipID, actorID)
}

func (m *mockFriendshipService) Revoke(ctx context.Context, friendshipID, actorID uuid.UUID) error {
	return m.RevokeFunc(ctx, friendshipID, actorID)
}

func (m *mockFriendshipService) ListFriends(ctx context.Context, accountID uuid.UUID) ([]models.FriendSummary, error) {
	return m.ListFriendsFunc(ctx, accountID)
}

func (m *mockFriendshipService) ListInvitationsReceived(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error) {
	return m.ListInvitationsReceivedFunc(ctx, accountID)
}

func (m *mockFriendshipService) ListInvitationsSent(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error) {
	return m.ListInvitationsSentFunc(ctx, accountID)
}

type mockPostService struct {
	services.PostServiceInterface
	CreateFunc              func(ctx context.Context, params models.CreatePostParams) (*models.Post, error)
	GetVisibleFunc          func(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Post, error)
	AddLikeFunc             func(ctx context.Context, postID, accountID uuid.UUID) error
	AddTagFunc              func(ctx context.Context, postID, accountID uuid.UUID) error
	VisiblePostsFunc        func(ctx context.Context, authorID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error)
	PostsTaggingFunc        func(ctx context.Context, accountID uuid.UUID) ([]models.Post, error)
	VisiblePostsTaggingFunc func(ctx context.Context, accountID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error)
	LikesOfFunc             func(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error)
	TagsOfFunc              func(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error)
	LikeCountFunc           func(ctx context.Context, postID uuid.UUID) (int, error)
}

func (m *mockPostService) Create(ctx context.Context, params models.CreatePostParams) (*models.Post, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockPostService) GetVisible(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Post, error) {
	return m.GetVisibleFunc(ctx, id, viewer)
}

func (m *mockPostService) AddLike(ctx context.Context, postID, accountID uuid.UUID) error {
	return m.AddLikeFunc(ctx, postID, accountID)
}

func (m *mockPostService) AddTag(ctx context.Context, postID, accountID uuid.UUID) error {
	return m.AddTagFunc(ctx, postID, accountID)
}

func (m *mockPostService) VisiblePosts(ctx context.Context, authorID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error) {
	return m.VisiblePostsFunc(ctx, authorID, viewer)
}

func (m *mockPostService) PostsTagging(ctx context.Context, accountID uuid.UUID) ([]models.Post, error) {
	return m.PostsTaggingFunc(ctx, accountID)
}

func (m *mockPostService) VisiblePostsTagging(ctx context.Context, accountID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error) {
	return m.VisiblePostsTaggingFunc(ctx, accountID, viewer)
}

func (m *mockPostService) LikesOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error) {
	return m.LikesOfFunc(ctx, postID)
}

func (m *mockPostService) TagsOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error) {
	return m.TagsOfFunc(ctx, postID)
}

func (m *mockPostService) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	return m.LikeCountFunc(ctx, postID)
}
