package domain

import "time"

// User is the single identity record shared by both enrollment paths.
// PasswordHash is set only for users created through local signup;
// OAuthProvider/OAuthID only for users first seen through federation.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash  *string   `gorm:"size:1024" json:"-"`
	OAuthProvider *string   `gorm:"size:64" json:"oauth_provider,omitempty"`
	OAuthID       *string   `gorm:"size:255" json:"-"`
	Role          string    `gorm:"size:32;not null;default:user" json:"role"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) HasLocalCredential() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
