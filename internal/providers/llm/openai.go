package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultChatModel     = "gpt-3.5-turbo-0125"
	defaultRephraseModel = "gpt-4o"
	defaultClassifyModel = "gpt-4o-mini"

	callTimeout = 30 * time.Second
)

// OpenAI wraps the OpenAI API for completions, structured classification,
// and embeddings. A single attempt is made per call; callers own fallbacks.
type OpenAI struct {
	client *openai.Client

	chatModel      string
	rephraseModel  string
	classifyModel  string
	embeddingModel openai.EmbeddingModel
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client:         openai.NewClient(apiKey),
		chatModel:      defaultChatModel,
		rephraseModel:  defaultRephraseModel,
		classifyModel:  defaultClassifyModel,
		embeddingModel: openai.LargeEmbedding3,
	}
}

func (c *OpenAI) complete(ctx context.Context, model, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, c.chatModel, systemPrompt, userPrompt, false)
}

func (c *OpenAI) Rephrase(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, c.rephraseModel, "", prompt, false)
}

const taggingPrompt = `Extract the desired information from the following passage.
Only extract the properties mentioned in the 'Classification' function.
Passage:
`

const intentSchema = `Classify the given user query into one of two categories:
Casual Greeting - If the query is a generic greeting or social pleasantry (e.g., 'Hi', 'How are you?', 'Good morning').
Subject-Specific - If the query is about a particular topic or seeks information (e.g., 'What is Python?', 'Tell me about space travel').
Respond with JSON of the form {"category": "<Casual Greeting|Subject-Specific>"}.`

const relevanceSchema = `Determine whether the given user query is related to animal bites.
Categories:
Animal Bite-Related - If the query mentions animal bites, their effects, treatment, prevention, or specific cases (e.g., 'What to do after a dog bite?', 'Are cat bites dangerous?').
Not Animal Bite-Related - If the query does not pertain to animal bites.
Respond with JSON of the form {"category": "<Animal Bite-Related|Not Animal Bite-Related>"}.`

type taggedCategory struct {
	Category string `json:"category"`
}

func (c *OpenAI) classify(ctx context.Context, schema, input string, valid ...string) (string, error) {
	raw, err := c.complete(ctx, c.classifyModel, schema, taggingPrompt+input, true)
	if err != nil {
		return "", err
	}

	var tag taggedCategory
	if err := json.Unmarshal([]byte(raw), &tag); err != nil {
		return "", err
	}
	for _, v := range valid {
		if tag.Category == v {
			return tag.Category, nil
		}
	}
	return "", errors.New("classifier returned unknown category: " + tag.Category)
}

func (c *OpenAI) ClassifyIntent(ctx context.Context, input string) (string, error) {
	return c.classify(ctx, intentSchema, input, CategoryCasual, CategorySubject)
}

func (c *OpenAI) ClassifyRelevance(ctx context.Context, input string) (string, error) {
	return c.classify(ctx, relevanceSchema, input, CategoryRelated, CategoryUnrelated)
}

func (c *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *OpenAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding response size mismatch")
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		out[d.Index] = d.Embedding
	}
	return out, nil
}
