package models

import (
	"time"
)

// User represents a registered commenter
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	AvatarURL string    `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserPublic is the display subset of a user that may be shown next to a
// comment. Viewers fetch it after a creation broadcast to enrich the thread.
type UserPublic struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Public returns the display subset of the user.
func (u *User) Public() UserPublic {
	return UserPublic{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}
