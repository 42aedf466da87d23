package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

const (
	ChunkKindPassage = "passage"
	ChunkKindQA      = "qa"
)

const (
	ChunkStatusActive  = "active"
	ChunkStatusDeleted = "deleted"
)

// KnowledgeChunk is one embedded row of the retrieval corpus: either a raw
// passage from the ingested literature or a curated Q/A pair mirrored from
// the solved-question table. Dimensionality is fixed by the embedding model
// (text-embedding-3-large).
type KnowledgeChunk struct {
	ID        string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind      string          `gorm:"column:kind;type:text" json:"kind"` // passage|qa
	Passage   string          `gorm:"column:passage;type:text" json:"passage"`
	Question  string          `gorm:"column:question;type:text" json:"question"`
	Answer    string          `gorm:"column:answer;type:text" json:"answer"`
	Status    string          `gorm:"column:status;type:text;index" json:"status"` // active|deleted
	Embedding pgvector.Vector `gorm:"column:embedding;type:vector(3072)" json:"-"`
	Metadata  datatypes.JSON  `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time       `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (KnowledgeChunk) TableName() string { return "knowledge_chunks" }

// Text returns the context text a hit contributes to the generation prompt.
func (k *KnowledgeChunk) Text() string {
	if k.Kind == ChunkKindQA {
		return "Q: " + k.Question + "\nA: " + k.Answer
	}
	return k.Passage
}
