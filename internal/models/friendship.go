package models

import (
	"time"

	"github.com/google/uuid"
)

type FriendshipState string

const (
	FriendshipStatePending  FriendshipState = "pending"
	FriendshipStateAccepted FriendshipState = "accepted"
)

type Friendship struct {
	ID            uuid.UUID  `json:"id"`
	InitiatorID   uuid.UUID  `json:"initiator_id"`
	RecipientID   uuid.UUID  `json:"recipient_id"`
	Accepted      bool       `json:"accepted"`
	CreatedAt     time.Time  `json:"created_at"`
	EstablishedAt *time.Time `json:"established_at,omitempty"`
}

func (f Friendship) State() FriendshipState {
	if f.Accepted {
		return FriendshipStateAccepted
	}
	return FriendshipStatePending
}

// Involves reports whether id is either party of the friendship.
func (f Friendship) Involves(id uuid.UUID) bool {
	return f.InitiatorID == id || f.RecipientID == id
}

// Other returns the party that is not id. It returns uuid.Nil when id is not a party.
func (f Friendship) Other(id uuid.UUID) uuid.UUID {
	switch id {
	case f.InitiatorID:
		return f.RecipientID
	case f.RecipientID:
		return f.InitiatorID
	default:
		return uuid.Nil
	}
}

type FriendSummary struct {
	FriendshipID  uuid.UUID      `json:"friendship_id"`
	Friend        AccountSummary `json:"friend"`
	EstablishedAt *time.Time     `json:"established_at,omitempty"`
}
