package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/invopop/jsonschema"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient implements LLMClient against the OpenAI chat completions
// API. It is the one concrete LLMClient wired by cmd/genesis; everywhere
// else in the module depends only on the LLMClient interface.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// NewOpenAIClient builds a client for model using apiKey. baseURL, when
// non-empty, points at an OpenAI-compatible gateway instead of the public
// API.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Chat sends messages to the configured model, streaming content tokens
// through opts.OnToken as they arrive and returning the fully assembled
// result once the stream completes.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, opts Options) (Result, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
		Stream:      true,
	}

	if opts.Schema != nil {
		reflector := jsonschema.Reflector{ExpandedStruct: true}
		schema := reflector.Reflect(opts.Schema)
		name := opts.SchemaName
		if name == "" {
			name = "structured_output"
		}
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: schema,
				Strict: true,
			},
		}
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return Result{}, &Error{Provider: "openai", Err: err}
	}
	defer stream.Close()

	var result Result
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, &Error{Provider: "openai", Err: err}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta
		if delta.Content != "" {
			result.Content += delta.Content
			if opts.OnToken != nil {
				opts.OnToken(delta.Content)
			}
		}
		if delta.ReasoningContent != "" {
			result.Reasoning += delta.ReasoningContent
			if opts.OnReasoning != nil {
				opts.OnReasoning(delta.ReasoningContent)
			}
		}
	}

	slog.Debug("llm chat completed", "model", c.model, "content_len", len(result.Content))
	return result, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}
