package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/mathx"
	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	pgrepo "github.com/arogyalabs/bitebot/internal/repositories/postgres"
	"github.com/arogyalabs/bitebot/internal/utils"
)

const (
	// retrievalTopK is how many nearest chunks the vector search returns.
	retrievalTopK = 5
	// contextThreshold gates which retrieved chunks qualify as context.
	contextThreshold = 0.55
	// doctorMatchThreshold gates reuse of a human-curated answer.
	doctorMatchThreshold = 0.80
)

type KnowledgeService interface {
	// StoreQA embeds and stores a curated Q/A pair.
	StoreQA(ctx context.Context, question, answer string) error
	// UpdateQA re-embeds and rewrites the chunk stored for oldQuestion.
	UpdateQA(ctx context.Context, oldQuestion, question, answer string) error
	// DeleteQA soft-deletes the chunk stored for question.
	DeleteQA(ctx context.Context, question string) error
	// SearchContext returns the concatenated text of retrieved chunks with
	// similarity ≥ 0.55, or "" when nothing qualifies.
	SearchContext(ctx context.Context, query string) (string, error)
	// BestMatch finds the candidate question most similar to query,
	// accepted only at similarity ≥ 0.80.
	BestMatch(ctx context.Context, query string, candidates []string) (match string, ok bool, err error)
}

type knowledgeService struct {
	chunks   pgrepo.KnowledgeRepo
	embedder llm.Embedder
	log      *logrus.Logger
}

func NewKnowledgeService(chunks pgrepo.KnowledgeRepo, embedder llm.Embedder, log *logrus.Logger) KnowledgeService {
	return &knowledgeService{chunks: chunks, embedder: embedder, log: log}
}

func (s *knowledgeService) StoreQA(ctx context.Context, question, answer string) error {
	const op = "KnowledgeService.StoreQA"

	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return utils.E(utils.CodeInvalidArgument, op, "question and answer are required", nil)
	}

	vec, err := s.embedder.Embed(ctx, "Q: "+question+"\nA: "+answer)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to embed q/a pair", err)
	}

	now := time.Now().UTC()
	chunk := &models.KnowledgeChunk{
		ID:        uuid.NewString(),
		Kind:      models.ChunkKindQA,
		Question:  question,
		Answer:    answer,
		Status:    models.ChunkStatusActive,
		Embedding: pgvector.NewVector(vec),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chunks.Insert(ctx, chunk); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store knowledge chunk", err)
	}
	return nil
}

func (s *knowledgeService) UpdateQA(ctx context.Context, oldQuestion, question, answer string) error {
	const op = "KnowledgeService.UpdateQA"

	vec, err := s.embedder.Embed(ctx, "Q: "+question+"\nA: "+answer)
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to embed q/a pair", err)
	}
	if err := s.chunks.UpdateByQuestion(ctx, oldQuestion, question, answer, vec); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to update knowledge chunk", err)
	}
	return nil
}

func (s *knowledgeService) DeleteQA(ctx context.Context, question string) error {
	const op = "KnowledgeService.DeleteQA"

	if err := s.chunks.SoftDeleteByQuestion(ctx, question); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete knowledge chunk", err)
	}
	return nil
}

func (s *knowledgeService) SearchContext(ctx context.Context, query string) (string, error) {
	const op = "KnowledgeService.SearchContext"

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}

	hits, err := s.chunks.SearchNearest(ctx, vec, retrievalTopK)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "vector search failed", err)
	}

	var b strings.Builder
	for i := range hits {
		score := math.Round(hits[i].Score*100) / 100
		s.log.WithFields(logrus.Fields{"chunk_id": hits[i].ID, "score": hits[i].Score}).Debug("retrieval candidate")
		if score >= contextThreshold {
			b.WriteString(hits[i].Text())
			b.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (s *knowledgeService) BestMatch(ctx context.Context, query string, candidates []string) (string, bool, error) {
	const op = "KnowledgeService.BestMatch"

	if len(candidates) == 0 {
		return "", false, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", false, utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}
	candVecs, err := s.embedder.EmbedBatch(ctx, candidates)
	if err != nil {
		return "", false, utils.E(utils.CodeUnavailable, op, "failed to embed candidates", err)
	}

	bestScore := 0.0
	best := ""
	for i, cv := range candVecs {
		if score := mathx.Cosine(queryVec, cv); score > bestScore {
			bestScore = score
			best = candidates[i]
		}
	}
	if bestScore < doctorMatchThreshold {
		return "", false, nil
	}
	return best, true, nil
}
