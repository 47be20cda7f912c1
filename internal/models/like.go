package models

import "time"

// Like records that a user favorited a message. A (user, message) pair is unique.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MessageID string    `json:"message_id" gorm:"not null;index;uniqueIndex:idx_user_message"` // MongoDB ObjectID hex
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_user_message"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeToggleResponse is the body of POST /api/messages/:message_id/like
type LikeToggleResponse struct {
	Favorited bool `json:"favorited"`
}
