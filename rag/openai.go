package rag

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOpenAIChatModel      = "gpt-3.5-turbo"
	DefaultProviderTimeout      = 60 * time.Second
)

// OpenAIConfig holds what is needed to reach the OpenAI API.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // optional, for Azure or proxies
	Model   string
	Timeout time.Duration
}

func newOpenAIClient(cfg OpenAIConfig) (openai.Client, error) {
	if cfg.APIKey == "" {
		return openai.Client{}, errors.New("openai: API key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0), // retries belong to RetryEmbedder / RetryCompleter
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewClient(opts...), nil
}

// OpenAIEmbedder calls the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIEmbeddingModel
	}
	return &OpenAIEmbedder{client: client, model: cfg.Model}, nil
}

func (e *OpenAIEmbedder) Model() string {
	return "openai/" + e.model
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, openAIError("embeddings", err)
	}
	if len(resp.Data) == 0 {
		return nil, &ProviderError{Provider: "openai", Op: "embeddings", Err: errors.New("no embedding data returned")}
	}
	return resp.Data[0].Embedding, nil
}

// OpenAICompleter calls the chat completions endpoint with a single user message.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

var _ Completer = (*OpenAICompleter)(nil)

func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIChatModel
	}
	return &OpenAICompleter{client: client, model: cfg.Model}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, params ModelParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.model
	}
	req := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(params.Temperature),
	}
	if params.MaxTokens > 0 {
		req.MaxCompletionTokens = openai.Int(int64(params.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", openAIError("chat", err)
	}
	if len(completion.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Op: "chat", Err: errors.New("no response choices returned")}
	}
	return completion.Choices[0].Message.Content, nil
}

func openAIError(op string, err error) error {
	pe := &ProviderError{Provider: "openai", Op: op, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}
