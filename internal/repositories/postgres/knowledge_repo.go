package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/arogyalabs/bitebot/internal/models"
)

// ScoredChunk is a knowledge row with its cosine similarity to the query.
type ScoredChunk struct {
	ID       string  `gorm:"column:id"`
	Kind     string  `gorm:"column:kind"`
	Passage  string  `gorm:"column:passage"`
	Question string  `gorm:"column:question"`
	Answer   string  `gorm:"column:answer"`
	Score    float64 `gorm:"column:score"`
}

// Text mirrors models.KnowledgeChunk.Text for scored rows.
func (s *ScoredChunk) Text() string {
	if s.Kind == models.ChunkKindQA {
		return "Q: " + s.Question + "\nA: " + s.Answer
	}
	return s.Passage
}

type KnowledgeRepo interface {
	Insert(ctx context.Context, chunk *models.KnowledgeChunk) error
	// SearchNearest returns the k rows closest to the query embedding,
	// highest cosine similarity first. Deleted rows are excluded.
	SearchNearest(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error)
	// UpdateByQuestion rewrites the Q/A chunk stored for oldQuestion.
	UpdateByQuestion(ctx context.Context, oldQuestion, question, answer string, embedding []float32) error
	SoftDeleteByQuestion(ctx context.Context, question string) error
}

type knowledgeRepo struct {
	db *gorm.DB
}

func NewKnowledgeRepo(db *gorm.DB) KnowledgeRepo {
	return &knowledgeRepo{db: db}
}

func (r *knowledgeRepo) Insert(ctx context.Context, chunk *models.KnowledgeChunk) error {
	return r.db.WithContext(ctx).Create(chunk).Error
}

func (r *knowledgeRepo) SearchNearest(ctx context.Context, embedding []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	vec := pgvector.NewVector(embedding)

	var rows []ScoredChunk
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, kind, passage, question, answer, 1 - (embedding <=> ?) AS score
		     FROM knowledge_chunks
		     WHERE status = ?
		     ORDER BY embedding <=> ?
		     LIMIT ?`, vec, models.ChunkStatusActive, vec, k).
		Scan(&rows).Error
	return rows, err
}

func (r *knowledgeRepo) UpdateByQuestion(ctx context.Context, oldQuestion, question, answer string, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeChunk{}).
		Where("kind = ? AND question = ? AND status = ?", models.ChunkKindQA, oldQuestion, models.ChunkStatusActive).
		Updates(map[string]any{
			"question":   question,
			"answer":     answer,
			"embedding":  pgvector.NewVector(embedding),
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *knowledgeRepo) SoftDeleteByQuestion(ctx context.Context, question string) error {
	return r.db.WithContext(ctx).
		Model(&models.KnowledgeChunk{}).
		Where("kind = ? AND question = ? AND status = ?", models.ChunkKindQA, question, models.ChunkStatusActive).
		Updates(map[string]any{
			"status":     models.ChunkStatusDeleted,
			"updated_at": time.Now().UTC(),
		}).Error
}
