package models

import (
	"time"

	"github.com/google/uuid"
)

// Media maps an id to a stored file path.
type Media struct {
	ID        uuid.UUID `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
