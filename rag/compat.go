package rag

import (
	"context"
	"errors"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// DefaultCompatBaseURL points at a local Ollama server's OpenAI-compatible API.
const DefaultCompatBaseURL = "http://localhost:11434/v1"

// CompatConfig configures a client for any server speaking the OpenAI wire
// format (Ollama, vLLM, LM Studio, ...).
type CompatConfig struct {
	APIKey  string // optional for most local servers
	BaseURL string
	Model   string
	Timeout time.Duration
}

func newCompatClient(cfg CompatConfig) *goopenai.Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultCompatBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	c := goopenai.DefaultConfig(cfg.APIKey)
	c.BaseURL = cfg.BaseURL
	c.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return goopenai.NewClientWithConfig(c)
}

// CompatEmbedder embeds through an OpenAI-compatible /embeddings endpoint.
type CompatEmbedder struct {
	client *goopenai.Client
	model  string
}

var _ Embedder = (*CompatEmbedder)(nil)

func NewCompatEmbedder(cfg CompatConfig) (*CompatEmbedder, error) {
	if cfg.Model == "" {
		return nil, errors.New("compat: embedding model is required")
	}
	return &CompatEmbedder{client: newCompatClient(cfg), model: cfg.Model}, nil
}

func (e *CompatEmbedder) Model() string {
	return "compat/" + e.model
}

func (e *CompatEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Input: []string{text},
		Model: goopenai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, compatError("embeddings", err)
	}
	if len(resp.Data) == 0 {
		return nil, &ProviderError{Provider: "compat", Op: "embeddings", Err: errors.New("no embedding data returned")}
	}

	v32 := resp.Data[0].Embedding
	v := make([]float64, len(v32))
	for i := range v32 {
		v[i] = float64(v32[i])
	}
	return v, nil
}

// CompatCompleter sends the prompt as a single user chat message.
type CompatCompleter struct {
	client *goopenai.Client
	model  string
}

var _ Completer = (*CompatCompleter)(nil)

func NewCompatCompleter(cfg CompatConfig) (*CompatCompleter, error) {
	if cfg.Model == "" {
		return nil, errors.New("compat: chat model is required")
	}
	return &CompatCompleter{client: newCompatClient(cfg), model: cfg.Model}, nil
}

func (c *CompatCompleter) Complete(ctx context.Context, prompt string, params ModelParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(params.Temperature),
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", compatError("chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: "compat", Op: "chat", Err: errors.New("no response choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

func compatError(op string, err error) error {
	pe := &ProviderError{Provider: "compat", Op: op, Err: err}
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
	}
	return pe
}
