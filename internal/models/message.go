package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a warble, stored in MongoDB
type Message struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     uint               `json:"user_id" bson:"user_id"`
	Text       string             `json:"text" bson:"text"`
	LikesCount int                `json:"likes_count" bson:"likes_count"`
	Timestamp  time.Time          `json:"timestamp" bson:"timestamp"`
}

type CreateMessageRequest struct {
	Text string `json:"text" form:"text" validate:"required,min=1,max=140"`
}

// EnrichedMessage is a message with its author and the viewer's like state.
type EnrichedMessage struct {
	Message
	Author  UserCompact `json:"author"`
	IsLiked bool        `json:"is_liked"`
}
