package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SolvedStatus string

const (
	SolvedActive  SolvedStatus = "active"
	SolvedDeleted SolvedStatus = "deleted"
)

const (
	SourceDashboardSubmit = "dashboard_submit"
	SourceDashboardManual = "dashboard_manual"
)

// SolvedQuestion is a human-curated Q&A pair. Deletion is a status flip;
// list queries must filter on Status explicitly.
type SolvedQuestion struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Question  string             `bson:"question" json:"question"`
	Answer    string             `bson:"answer" json:"answer"`
	Source    string             `bson:"source" json:"source"`
	Status    SolvedStatus       `bson:"status" json:"status"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedAt *time.Time         `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
	DeletedAt *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}
