package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// EmbeddingOpenAIClient wraps OpenAIClient's embeddings endpoint so the
// same configured client also satisfies vectorstore.Embedder for the
// precedent store's chromem-go index.
type EmbeddingOpenAIClient struct {
	*OpenAIClient
	embeddingModel openai.EmbeddingModel
}

// NewEmbeddingOpenAIClient builds an embedder around an existing chat
// client's connection, using embeddingModel (e.g. "text-embedding-3-small").
func NewEmbeddingOpenAIClient(client *OpenAIClient, embeddingModel string) *EmbeddingOpenAIClient {
	return &EmbeddingOpenAIClient{OpenAIClient: client, embeddingModel: openai.EmbeddingModel(embeddingModel)}
}

// Embed satisfies vectorstore.Embedder.
func (c *EmbeddingOpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("llm: embeddings response had no data")
	}
	return resp.Data[0].Embedding, nil
}
