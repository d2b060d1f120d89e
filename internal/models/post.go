package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	Media     *Media    `json:"media,omitempty"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePostParams struct {
	AuthorID  uuid.UUID
	Body      string
	MediaPath string
	Public    bool
	Tags      []uuid.UUID
}
