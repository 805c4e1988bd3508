// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/microsoft/agentkit/agentkit"
)

// Client implements [agentkit.ChatClient] using the OpenAI Chat
// Completions API. Use [New] to create one.
type Client struct {
	tp      transport
	model   string
	handler agentkit.ChatHandler
}

// Verify interface compliance at compile time.
var _ agentkit.ChatClient = (*Client)(nil)

// New creates an OpenAI [Client] with the given API key and options.
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	c := &Client{
		tp:    newHTTPTransport(apiKey, cfg),
		model: cfg.model,
	}
	// Set up core handler
	c.handler = c.coreResponse
	// Apply middleware in order
	for i := len(cfg.chatMiddleware) - 1; i >= 0; i-- {
		c.handler = cfg.chatMiddleware[i](c.handler)
	}
	return c
}

// FromDescriptor is an [agentkit.ClientFactory] building a Client from a
// service descriptor. An Azure endpoint turns into the base URL with the
// api-key header; without an endpoint the client talks to api.openai.com
// with bearer auth. Register it alongside the descriptor:
//
//	reg.Register("chat", agentkit.ServiceDescriptor{
//	    Provider:   "azure",
//	    Endpoint:   endpoint,
//	    APIKey:     key,
//	    Deployment: "gpt-4o",
//	    NewClient:  openai.FromDescriptor,
//	})
func FromDescriptor(_ context.Context, desc agentkit.ServiceDescriptor) (agentkit.ChatClient, error) {
	opts := []Option{WithModel(desc.Deployment)}
	if desc.Endpoint != "" {
		opts = append(opts,
			WithBaseURL(strings.TrimSuffix(desc.Endpoint, "/")+"/openai/v1"),
			WithHeaders(map[string]string{"api-key": desc.APIKey}),
		)
	}
	return New(desc.APIKey, opts...), nil
}

// Response sends a non-streaming chat completion request and returns the
// complete response.
func (c *Client) Response(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	req := buildRequest(messages, opts, c.model)
	req.Stream = false

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", agentkit.ErrService, err)
	}

	raw, err := unmarshalChatResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", agentkit.ErrService, err)
	}

	result := parseChatResponse(raw)
	result.Raw = raw
	return result, nil
}

// StreamResponse sends a streaming chat completion request and returns
// a [agentkit.ResponseStream] that yields incremental updates via
// server-sent events.
func (c *Client) StreamResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	req := buildRequest(messages, opts, c.model)
	req.Stream = true
	req.StreamOptions = &streamOptions{IncludeUsage: true}

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	stream := agentkit.NewResponseStream[agentkit.ChatResponseUpdate](ctx, func(ctx context.Context, ch chan<- agentkit.ChatResponseUpdate) error {
		defer resp.Body.Close()
		return parseSSEStream(ctx, resp.Body, ch)
	})

	return stream, nil
}

// parseSSEStream reads OpenAI server-sent events from r and sends parsed
// updates to ch. It returns when the stream is exhausted ([DONE]),
// the context is cancelled, or an error occurs.
func parseSSEStream(ctx context.Context, r io.Reader, ch chan<- agentkit.ChatResponseUpdate) error {
	scanner := bufio.NewScanner(r)
	// Allow large SSE lines (some responses can be substantial).
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// SSE format: lines starting with "data: "
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		data = strings.TrimSpace(data)

		// Stream terminator.
		if data == "[DONE]" {
			return nil
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed chunks rather than aborting.
			continue
		}

		update := parseChunk(&chunk)
		update.Raw = &chunk

		select {
		case ch <- *update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read SSE stream: %v", agentkit.ErrService, err)
	}

	return nil
}
