package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	Surname      string     `json:"surname"`
	Bio          string     `json:"bio"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	ProfilePic   *Media     `json:"profile_pic,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
}

// Profile is what other accounts get to see. It never carries the email.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	Surname     string     `json:"surname"`
	Bio         string     `json:"bio"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	ProfilePic  *Media     `json:"profile_pic,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
}

func (a *Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		Username:    a.Username,
		FirstName:   a.FirstName,
		Surname:     a.Surname,
		Bio:         a.Bio,
		DateOfBirth: a.DateOfBirth,
		ProfilePic:  a.ProfilePic,
		JoinedAt:    a.JoinedAt,
	}
}

func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		Surname:   a.Surname,
	}
}

// AccountSummary is the short form used in like, tag and friend lists.
type AccountSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	Surname   string    `json:"surname"`
}

type CreateAccountParams struct {
	Username       string
	Email          string
	Password       string
	FirstName      string
	Surname        string
	Bio            string
	DateOfBirth    *time.Time
	ProfilePicPath string
}

// UpdateProfileParams changes only the non-nil fields.
type UpdateProfileParams struct {
	FirstName      *string
	Surname        *string
	Bio            *string
	DateOfBirth    *time.Time
	ProfilePicPath *string
}
