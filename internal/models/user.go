// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account in the BlogPose application.
type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	FullName      string `gorm:"not null" json:"full_name"`
	Username      string `gorm:"uniqueIndex;not null" json:"username"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	Password      string `gorm:"not null" json:"-"`
	PhoneNumber   string `json:"phone_number"`
	BirthDate     time.Time `json:"birth_date"`
	Gender        string `json:"gender"`
	StreetAddress string `json:"street_address"`
	Country       string `json:"country"`
	City          string `json:"city"`
	// AvatarFile is the stored filename of the profile picture. Every
	// account starts with the shared placeholder image.
	AvatarFile string `gorm:"not null;default:default.jpg" json:"avatar_file"`

	// Password reset state. The plaintext token is never stored; only its
	// SHA-256 hex digest. When ResetTokenHash is set, both timestamps are set.
	ResetTokenHash      *string    `gorm:"index" json:"-"`
	ResetTokenIssuedAt  *time.Time `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// HasActiveResetToken reports whether the user carries a reset token that
// has not yet passed its expiry.
func (u *User) HasActiveResetToken(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt)
}
