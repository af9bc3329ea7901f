package models

import "time"

// Like records that a user liked a post. The composite unique index makes
// the at-most-one-like-per-(user, post) rule a storage constraint rather
// than a best-effort application check.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
