package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InteractionStatus string

const (
	InteractionAnswered         InteractionStatus = "answered"
	InteractionForwarded        InteractionStatus = "forwarded_to_doctor"
	InteractionAnsweredByDoctor InteractionStatus = "answered_by_doctor"
)

// Interaction is the append-only audit record of one Q&A exchange.
// Casual exchanges and internal-error fallbacks are never persisted here.
type Interaction struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Status    InteractionStatus  `bson:"status" json:"status"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
