package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PreviewMaxLen bounds the stored session preview ("..." included).
const PreviewMaxLen = 53

type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`

	Language string `bson:"language" json:"language"` // en|ta|te|hi
	IsActive bool   `bson:"is_active" json:"is_active"`

	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	LastActivity time.Time `bson:"last_activity" json:"last_activity"`

	MessageCount int64  `bson:"message_count" json:"message_count"`
	Preview      string `bson:"preview" json:"preview"`
}

type ChatMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID   string             `bson:"session_id" json:"session_id"`
	UserMessage string             `bson:"user_message" json:"user_message"`
	BotResponse string             `bson:"bot_response" json:"bot_response"`
	Language    string             `bson:"language" json:"language"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
}

// Preview derives the stored preview from a user message.
func Preview(userMessage string) string {
	const cut = 50
	r := []rune(userMessage)
	if len(r) <= cut {
		return userMessage
	}
	return string(r[:cut]) + "..."
}
