package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/arogyalabs/bitebot/internal/models"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	pgrepo "github.com/arogyalabs/bitebot/internal/repositories/postgres"
)

// EmbedPool bulk-loads passages into the knowledge store. Batches of
// passages are embedded in one request each and written by a fixed number
// of workers.
type EmbedPool struct {
	Embedder   llm.Embedder
	Chunks     pgrepo.KnowledgeRepo
	NumWorkers int
	BatchSize  int
	// Source labels where the passages came from (usually the corpus
	// file name); it is recorded in each chunk's metadata.
	Source string
	Logger *logrus.Logger
}

type passage struct {
	text string
	ord  int
}

// Result summarizes one ingestion run.
type Result struct {
	Inserted int
	Failed   int
	Elapsed  time.Duration
}

// Run embeds and stores every non-empty passage. Individual batch failures
// are counted and logged, not fatal.
func (p *EmbedPool) Run(ctx context.Context, passages []string) (Result, error) {
	if p.Embedder == nil || p.Chunks == nil {
		return Result{}, errors.New("EmbedPool missing dependency: Embedder and Chunks must be set")
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 4
	}
	if p.BatchSize <= 0 {
		p.BatchSize = 32
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	cleaned := make([]passage, 0, len(passages))
	for _, t := range passages {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, passage{text: t, ord: len(cleaned)})
		}
	}

	start := time.Now()
	batches := make(chan []passage)
	go func() {
		defer close(batches)
		for i := 0; i < len(cleaned); i += p.BatchSize {
			end := min(i+p.BatchSize, len(cleaned))
			select {
			case batches <- cleaned[i:end]:
			case <-ctx.Done():
				return
			}
		}
	}()

	var mu sync.Mutex
	var res Result
	var wg sync.WaitGroup
	for w := 0; w < p.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range batches {
				inserted, failed := p.processBatch(ctx, batch)
				mu.Lock()
				res.Inserted += inserted
				res.Failed += failed
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	res.Elapsed = time.Since(start)
	p.Logger.WithFields(logrus.Fields{
		"inserted":   res.Inserted,
		"failed":     res.Failed,
		"elapsed_ms": res.Elapsed.Milliseconds(),
	}).Info("ingest: run complete")
	return res, ctx.Err()
}

func (p *EmbedPool) processBatch(ctx context.Context, batch []passage) (inserted, failed int) {
	texts := make([]string, len(batch))
	for i, pa := range batch {
		texts[i] = pa.text
	}
	vecs, err := p.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		p.Logger.WithError(err).WithField("batch_size", len(batch)).Error("ingest: embedding batch failed")
		return 0, len(batch)
	}
	if len(vecs) != len(batch) {
		p.Logger.WithFields(logrus.Fields{
			"want": len(batch),
			"got":  len(vecs),
		}).Error("ingest: embedding count mismatch")
		return 0, len(batch)
	}

	for i, pa := range batch {
		meta, err := json.Marshal(map[string]any{"source": p.Source, "ordinal": pa.ord})
		if err != nil {
			meta = nil
		}
		chunk := &models.KnowledgeChunk{
			ID:        uuid.NewString(),
			Kind:      models.ChunkKindPassage,
			Passage:   pa.text,
			Status:    models.ChunkStatusActive,
			Embedding: pgvector.NewVector(vecs[i]),
			Metadata:  datatypes.JSON(meta),
		}
		if err := p.Chunks.Insert(ctx, chunk); err != nil {
			p.Logger.WithError(err).Error("ingest: insert failed")
			failed++
			continue
		}
		inserted++
	}
	return inserted, failed
}
