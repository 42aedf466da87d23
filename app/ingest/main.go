// Command ingest bulk-loads a passage corpus into the knowledge store.
// Input is a UTF-8 text file with passages separated by blank lines.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arogyalabs/bitebot/config"
	"github.com/arogyalabs/bitebot/internal/logger"
	"github.com/arogyalabs/bitebot/internal/providers/llm"
	pgrepo "github.com/arogyalabs/bitebot/internal/repositories/postgres"
	"github.com/arogyalabs/bitebot/internal/workers"
)

func main() {
	path := flag.String("file", "", "path to the passage corpus")
	numWorkers := flag.Int("workers", 4, "concurrent embedding workers")
	batchSize := flag.Int("batch", 32, "passages per embedding request")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New()

	if *path == "" {
		log.Fatal("-file is required")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.WithError(err).Fatal("failed to read corpus")
	}

	var passages []string
	for _, block := range strings.Split(string(raw), "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			passages = append(passages, block)
		}
	}
	if len(passages) == 0 {
		log.Fatal("corpus contains no passages")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY is not set")
	}

	if err := config.InitPostgres(); err != nil {
		log.WithError(err).Fatal("postgresql init failed")
	}

	pool := &workers.EmbedPool{
		Embedder:   llm.NewOpenAI(apiKey),
		Chunks:     pgrepo.NewKnowledgeRepo(config.PostgresDB),
		NumWorkers: *numWorkers,
		BatchSize:  *batchSize,
		Source:     filepath.Base(*path),
		Logger:     log,
	}

	res, err := pool.Run(context.Background(), passages)
	if err != nil {
		log.WithError(err).Fatal("ingestion aborted")
	}
	if res.Failed > 0 {
		log.WithField("failed", res.Failed).Warn("some passages were not ingested")
	}
}
