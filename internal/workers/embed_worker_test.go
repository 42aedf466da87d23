package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/models"
	pgrepo "github.com/arogyalabs/bitebot/internal/repositories/postgres"
)

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.failOn != "" && t == f.failOn {
			return nil, errors.New("embedding failed")
		}
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

type fakeChunkRepo struct {
	mu   sync.Mutex
	rows []models.KnowledgeChunk
}

func (r *fakeChunkRepo) Insert(ctx context.Context, chunk *models.KnowledgeChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *chunk)
	return nil
}

func (r *fakeChunkRepo) SearchNearest(ctx context.Context, embedding []float32, k int) ([]pgrepo.ScoredChunk, error) {
	return nil, nil
}

func (r *fakeChunkRepo) UpdateByQuestion(ctx context.Context, oldQ, q, a string, embedding []float32) error {
	return nil
}

func (r *fakeChunkRepo) SoftDeleteByQuestion(ctx context.Context, question string) error {
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEmbedPoolIngestsAllPassages(t *testing.T) {
	repo := &fakeChunkRepo{}
	pool := &EmbedPool{
		Embedder:   &fakeEmbedder{},
		Chunks:     repo,
		NumWorkers: 3,
		BatchSize:  4,
		Source:     "corpus.txt",
		Logger:     quietLogger(),
	}

	passages := make([]string, 25)
	for i := range passages {
		passages[i] = "passage about wound care"
	}
	passages = append(passages, "", "   ") // blank input is dropped

	res, err := pool.Run(context.Background(), passages)
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 25 || res.Failed != 0 {
		t.Fatalf("result = %+v, want 25 inserted", res)
	}
	if len(repo.rows) != 25 {
		t.Fatalf("stored rows = %d, want 25", len(repo.rows))
	}
	ordinals := map[float64]bool{}
	for _, row := range repo.rows {
		if row.Kind != models.ChunkKindPassage || row.Status != models.ChunkStatusActive || row.ID == "" {
			t.Fatalf("stored row = %+v", row)
		}
		var meta map[string]any
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			t.Fatalf("metadata not valid JSON: %v", err)
		}
		if meta["source"] != "corpus.txt" {
			t.Fatalf("metadata source = %v, want corpus.txt", meta["source"])
		}
		ord, ok := meta["ordinal"].(float64)
		if !ok {
			t.Fatalf("metadata ordinal missing: %v", meta)
		}
		ordinals[ord] = true
	}
	if len(ordinals) != 25 {
		t.Errorf("distinct ordinals = %d, want 25", len(ordinals))
	}
}

func TestEmbedPoolCountsFailedBatches(t *testing.T) {
	repo := &fakeChunkRepo{}
	pool := &EmbedPool{
		Embedder:  &fakeEmbedder{failOn: "bad passage"},
		Chunks:    repo,
		BatchSize: 2,
		Logger:    quietLogger(),
	}

	res, err := pool.Run(context.Background(), []string{"good one", "bad passage", "good two", "good three"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted+res.Failed != 4 {
		t.Fatalf("result = %+v, want all passages accounted for", res)
	}
	if res.Failed != 2 {
		t.Errorf("failed = %d, want the failing batch of 2", res.Failed)
	}
}

func TestEmbedPoolRequiresDependencies(t *testing.T) {
	pool := &EmbedPool{}
	if _, err := pool.Run(context.Background(), []string{"x"}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}
