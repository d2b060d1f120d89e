package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

type AccountServiceInterface interface {
	Create(ctx context.Context, params models.CreateAccountParams) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, params models.UpdateProfileParams) (*models.Account, error)
}

type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*models.Account, string, error)
	ValidateSession(ctx context.Context, token string) (*models.Account, error)
	Logout(ctx context.Context, token string) error
	SessionTTL() time.Duration
}

type FriendshipServiceInterface interface {
	Get(ctx context.Context, a, b uuid.UUID) (*models.Friendship, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Friendship, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	Initiate(ctx context.Context, initiator, recipient uuid.UUID) (*models.Friendship, error)
	Accept(ctx context.Context, friendshipID, actorID uuid.UUID) (*models.Friendship, error)
	AcceptFrom(ctx context.Context, recipientID, initiatorID uuid.UUID) (*models.Friendship, error)
	Revoke(ctx context.Context, friendshipID, actorID uuid.UUID) error
	ListFor(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error)
	ListInvitationsReceived(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error)
	ListInvitationsSent(ctx context.Context, accountID uuid.UUID) ([]models.Friendship, error)
	ListFriends(ctx context.Context, accountID uuid.UUID) ([]models.FriendSummary, error)
}

type PostServiceInterface interface {
	Create(ctx context.Context, params models.CreatePostParams) (*models.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetVisible(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Post, error)
	AddLike(ctx context.Context, postID, accountID uuid.UUID) error
	AddTag(ctx context.Context, postID, accountID uuid.UUID) error
	VisiblePosts(ctx context.Context, authorID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error)
	PostsTagging(ctx context.Context, accountID uuid.UUID) ([]models.Post, error)
	VisiblePostsTagging(ctx context.Context, accountID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error)
	LikesOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error)
	TagsOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error)
	LikeCount(ctx context.Context, postID uuid.UUID) (int, error)
}

var (
	_ AccountServiceInterface    = (*AccountService)(nil)
	_ AccountAuthenticator       = (*AccountService)(nil)
	_ AuthServiceInterface       = (*AuthService)(nil)
	_ FriendshipServiceInterface = (*FriendshipService)(nil)
	_ FriendChecker              = (*FriendshipService)(nil)
	_ PostServiceInterface       = (*PostService)(nil)
)
