package models

import "time"

type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
)

// InboxQuestion is one entry in the doctor inbox's question array.
type InboxQuestion struct {
	Question   string         `bson:"question" json:"question"`
	Timestamp  time.Time      `bson:"timestamp" json:"timestamp"`
	Status     QuestionStatus `bson:"status" json:"status"`
	AnsweredAt *time.Time     `bson:"answered_at,omitempty" json:"answered_at,omitempty"`
}

// DoctorInbox is the single shared document holding escalated questions and
// the question → answer map curated by the reviewer.
type DoctorInbox struct {
	ID        string            `bson:"_id" json:"id"`
	Questions []InboxQuestion   `bson:"qn" json:"qn"`
	Answers   map[string]string `bson:"ans" json:"ans"`
}

// PendingQuestion is the dashboard view of an unanswered inbox entry.
type PendingQuestion struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Timestamp time.Time `json:"timestamp"`
}
