package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

// FriendChecker answers whether two accounts are accepted friends.
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// canSee is the post visibility rule. Public posts are visible to everyone,
// including anonymous viewers. Non-public posts are visible to their author
// and to the author's accepted friends.
func canSee(public bool, author uuid.UUID, viewer *uuid.UUID, friends bool) bool {
	if public {
		return true
	}
	if viewer == nil {
		return false
	}
	return *viewer == author || friends
}

// visibilityScope reports whether viewer may see the author's non-public
// posts. The friendship lookup is skipped when it cannot change the answer.
func visibilityScope(ctx context.Context, checker FriendChecker, author uuid.UUID, viewer *uuid.UUID) (bool, error) {
	if viewer == nil {
		return false, nil
	}
	if *viewer == author {
		return true, nil
	}
	friends, err := checker.AreFriends(ctx, *viewer, author)
	if err != nil {
		return false, err
	}
	return canSee(false, author, viewer, friends), nil
}

func canView(ctx context.Context, checker FriendChecker, post *models.Post, viewer *uuid.UUID) (bool, error) {
	if post.Public {
		return true, nil
	}
	return visibilityScope(ctx, checker, post.AuthorID, viewer)
}
