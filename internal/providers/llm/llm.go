package llm

import "context"

// Classification categories. Both classifiers fail open: intent defaults to
// CategorySubject and relevance to CategoryRelated, so a broken classifier
// steers toward answering, never toward silence.
const (
	CategoryCasual  = "Casual Greeting"
	CategorySubject = "Subject-Specific"

	CategoryRelated   = "Animal Bite-Related"
	CategoryUnrelated = "Not Animal Bite-Related"
)

// Provider is the chat-completion surface of the pipeline.
type Provider interface {
	// Complete runs a plain system+user completion on the chat model.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// Rephrase runs the standalone-question rewrite on the larger model.
	Rephrase(ctx context.Context, prompt string) (string, error)
	// ClassifyIntent tags input as CategoryCasual or CategorySubject.
	ClassifyIntent(ctx context.Context, input string) (string, error)
	// ClassifyRelevance tags input as CategoryRelated or CategoryUnrelated.
	ClassifyRelevance(ctx context.Context, input string) (string, error)
}

// Embedder produces fixed-dimension embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces the context-grounded answer text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
