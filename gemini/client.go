// Copyright (c) Microsoft. All rights reserved.

package gemini

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"google.golang.org/genai"

	"github.com/microsoft/agentkit/agentkit"
)

const defaultModel = "gemini-2.0-flash"

// generateAPI abstracts the Gen AI SDK operations the client uses.
// The real implementation wraps genai.Client.Models; tests inject a fake.
type generateAPI interface {
	generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	generateStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// modelsAPI adapts *genai.Client to the generateAPI seam.
type modelsAPI struct {
	client *genai.Client
}

func (m *modelsAPI) generate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, cfg)
}

func (m *modelsAPI) generateStream(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	return m.client.Models.GenerateContentStream(ctx, model, contents, cfg)
}

// Client implements [agentkit.ChatClient] using the Google Gen AI SDK.
// Use [New] to create one.
type Client struct {
	api     generateAPI
	model   string
	handler agentkit.ChatHandler
}

var _ agentkit.ChatClient = (*Client)(nil)

// clientConfig holds resolved configuration for the Gemini client.
type clientConfig struct {
	model          string
	backend        genai.Backend
	httpClient     *http.Client
	chatMiddleware []agentkit.ChatMiddleware
}

// Option configures a Gemini [Client].
type Option func(*clientConfig)

// WithModel sets the default model for requests.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithBackend selects the SDK backend, e.g. genai.BackendVertexAI.
// The default is the Gemini API.
func WithBackend(backend genai.Backend) Option {
	return func(c *clientConfig) { c.backend = backend }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithChatMiddleware adds middleware around non-streaming requests.
// Middleware is applied in the order provided (first = outermost).
// Streaming requests bypass it; pace those at the agent level with
// [agentkit.WithStreamMiddleware].
func WithChatMiddleware(mw ...agentkit.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}

// New creates a Gemini [Client] with the given API key and options.
// An empty key is valid only for backends that authenticate another way,
// such as Vertex AI with Application Default Credentials.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{backend: genai.BackendGeminiAPI}
	for _, o := range opts {
		o(cfg)
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    cfg.backend,
		HTTPClient: cfg.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %v", agentkit.ErrInvalidConfiguration, err)
	}

	return newWithAPI(&modelsAPI{client: genaiClient}, cfg), nil
}

// newWithAPI assembles a Client around an injected generate implementation.
func newWithAPI(api generateAPI, cfg *clientConfig) *Client {
	model := cfg.model
	if model == "" {
		model = defaultModel
	}
	c := &Client{api: api, model: model}
	c.handler = c.coreResponse
	for i := len(cfg.chatMiddleware) - 1; i >= 0; i-- {
		c.handler = cfg.chatMiddleware[i](c.handler)
	}
	return c
}

// FromDescriptor is an [agentkit.ClientFactory] building a Client from a
// service descriptor: the API key authenticates against the Gemini API and
// the deployment becomes the model name.
func FromDescriptor(ctx context.Context, desc agentkit.ServiceDescriptor) (agentkit.ChatClient, error) {
	var opts []Option
	if desc.Deployment != "" {
		opts = append(opts, WithModel(desc.Deployment))
	}
	return New(ctx, desc.APIKey, opts...)
}

// Response sends a non-streaming generate request and returns the
// complete response.
func (c *Client) Response(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	model, contents, cfg, err := buildGenerateRequest(messages, opts, c.model)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.generate(ctx, model, contents, cfg)
	if err != nil {
		return nil, mapGenAIError(err)
	}

	return parseGenerateResponse(resp)
}

// StreamResponse sends a streaming generate request and returns a stream
// of incremental updates.
func (c *Client) StreamResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	model, contents, cfg, err := buildGenerateRequest(messages, opts, c.model)
	if err != nil {
		return nil, err
	}

	seq := c.api.generateStream(ctx, model, contents, cfg)
	return agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- agentkit.ChatResponseUpdate) error {
		for resp, err := range seq {
			if err != nil {
				return mapGenAIError(err)
			}
			update := updateFromResponse(resp)
			if update == nil {
				continue
			}
			select {
			case ch <- *update:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}), nil
}
