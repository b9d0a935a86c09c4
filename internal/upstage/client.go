// Package upstage wraps the Upstage Solar API, which speaks the OpenAI
// wire protocol, for passage/query embeddings and chat generation.
package upstage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is the Upstage OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.upstage.ai/v1"

	// PassageModel embeds document passages for indexing.
	PassageModel = "embedding-passage"
	// QueryModel embeds user questions for retrieval. The two variants are
	// asymmetric and must not be mixed.
	QueryModel = "embedding-query"

	// DefaultEmbeddingDimensions is the width of Solar embeddings.
	DefaultEmbeddingDimensions = 4096

	embedTimeout    = 60 * time.Second
	generateTimeout = 120 * time.Second
)

var (
	// ErrNoAPIKey is returned when the Upstage API key is not set
	ErrNoAPIKey = errors.New("UPSTAGE_API_KEY environment variable not set")
	// ErrWrongDimensions is returned when an embedding has unexpected width
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoChoices is returned when a chat completion has no choices
	ErrNoChoices = errors.New("no completion choices returned")
)

// EmbeddingAPI defines the interface for batch embedding calls
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string, model string) ([][]float32, error)
}

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, system, user, model string, temperature float32, maxTokens int) (string, error)
}

// Client wraps the Upstage API for the indexing and retrieval services.
type Client struct {
	embed      EmbeddingAPI
	chat       ChatAPI
	dimensions int
}

// SolarAdapter translates client calls into go-openai requests against the
// Upstage endpoint.
type SolarAdapter struct {
	client *openai.Client
}

func NewSolarAdapter(apiKey, baseURL string) *SolarAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: generateTimeout}
	return &SolarAdapter{client: openai.NewClientWithConfig(cfg)}
}

// CreateEmbeddings calls the embeddings endpoint with the given model
// variant, returning one vector per input in matching order.
func (a *SolarAdapter) CreateEmbeddings(ctx context.Context, texts []string, model string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// CreateChatCompletion calls the chat completions endpoint.
func (a *SolarAdapter) CreateChatCompletion(ctx context.Context, system, user, model string, temperature float32, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

type Config struct {
	APIKey              string
	BaseURL             string
	EmbeddingDimensions int
}

// NewClient creates a new Upstage client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new Upstage client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	adapter := NewSolarAdapter(cfg.APIKey, cfg.BaseURL)
	return &Client{
		embed:      adapter,
		chat:       adapter,
		dimensions: dimensions,
	}
}

// NewClientFromEnv creates a new client using UPSTAGE_API_KEY.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("UPSTAGE_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// EmbedPassages embeds document passages with the passage model variant.
// An empty input returns an empty output without a network call.
func (c *Client) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embedBatch(ctx, texts, PassageModel)
}

// EmbedQuery embeds a single user question with the query model variant.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embedBatch(ctx, []string{text}, QueryModel)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := c.embed.CreateEmbeddings(ctx, texts, model)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != c.dimensions {
			return nil, ErrWrongDimensions
		}
	}
	return vectors, nil
}

// Generate produces a completion for the given prompts. Failures surface as
// errors; callers decide whether to degrade.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt, model string, temperature float32, maxTokens int) (string, error) {
	text, err := c.chat.CreateChatCompletion(ctx, systemPrompt, userPrompt, model, temperature, maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return text, nil
}
