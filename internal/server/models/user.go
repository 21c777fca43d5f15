// Package models contains the server-side data model.
package models

import "time"

// User is the account record as stored in the database.
//
// RefreshToken holds the single currently valid refresh token for the user
// (empty when the user is logged out). Issuing a new refresh token overwrites
// the slot, invalidating the previous one.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	RefreshToken  string
	CreatedAt     time.Time
}

// PublicUser is the client-facing projection of a User: the password hash and
// refresh token never leave the service.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar,omitempty"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sanitize returns the public projection of the user.
func (u *User) Sanitize() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
