package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user record in the database
type UserDB struct {
	UserID        uuid.UUID `db:"id"`              // Primary key
	Username      string    `db:"username"`        // Unique, lower-case
	Email         string    `db:"email"`           // Unique, lower-case
	Fullname      string    `db:"fullname"`        // Display name
	PasswordHash  string    `db:"password_hash"`   // bcrypt hash
	AvatarURL     string    `db:"avatar_url"`      // Required after registration
	CoverImageURL string    `db:"cover_image_url"` // Optional, may be empty
	RefreshToken  *string   `db:"refresh_token"`   // Live refresh token, nil when logged out
	CreatedAt     time.Time `db:"created_at"`      // Creation timestamp
	UpdatedAt     time.Time `db:"updated_at"`      // Last update timestamp
}

// Sanitize returns the projection of the record that may leave the service.
func (u *UserDB) Sanitize() *User {
	if u == nil {
		return nil
	}
	return &User{
		UserID:        u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		Fullname:      u.Fullname,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// User is the sanitized projection of a user: it has no password hash or refresh token.
// swagger:model User
type User struct {
	UserID        uuid.UUID `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	Email         string    `json:"email" db:"email"`
	Fullname      string    `json:"fullname" db:"fullname"`
	AvatarURL     string    `json:"avatarUrl" db:"avatar_url"`
	CoverImageURL string    `json:"coverImageUrl" db:"cover_image_url"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// NewUser holds the fields persisted at registration. Password is the raw
// password; the repository hashes it before writing.
type NewUser struct {
	Username      string
	Email         string
	Fullname      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// ProfileUpdate is a partial update of a user; nil fields are left unchanged.
type ProfileUpdate struct {
	Fullname      *string
	Email         *string
	AvatarURL     *string
	CoverImageURL *string
}

// Empty reports whether the update changes nothing.
func (p ProfileUpdate) Empty() bool {
	return p.Fullname == nil && p.Email == nil && p.AvatarURL == nil && p.CoverImageURL == nil
}
