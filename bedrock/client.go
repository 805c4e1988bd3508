// Copyright (c) Microsoft. All rights reserved.

package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/microsoft/agentkit/agentkit"
)

// converseAPI abstracts the Bedrock runtime operations the client uses.
// The real implementation is *bedrockruntime.Client; tests inject a fake.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	ConverseStream(ctx context.Context, params *bedrockruntime.ConverseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseStreamOutput, error)
}

// Client implements [agentkit.ChatClient] using the AWS Bedrock Converse
// API. Use [New] to create one.
type Client struct {
	api     converseAPI
	model   string
	handler agentkit.ChatHandler
}

var _ agentkit.ChatClient = (*Client)(nil)

// clientConfig holds resolved configuration for the Bedrock client.
type clientConfig struct {
	region         string
	chatMiddleware []agentkit.ChatMiddleware
}

// Option configures a Bedrock [Client].
type Option func(*clientConfig)

// WithRegion sets the AWS region. When empty, the region comes from the
// default AWS configuration chain.
func WithRegion(region string) Option {
	return func(c *clientConfig) { c.region = region }
}

// WithChatMiddleware adds middleware around non-streaming requests.
// Middleware is applied in the order provided (first = outermost).
// Streaming requests bypass it; pace those at the agent level with
// [agentkit.WithStreamMiddleware].
func WithChatMiddleware(mw ...agentkit.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}

// New creates a Bedrock [Client] for the given model identifier. AWS
// credentials and region resolve through the standard default chain;
// [WithRegion] overrides the region explicitly.
func New(ctx context.Context, model string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", agentkit.ErrInvalidConfiguration, err)
	}

	return newWithAPI(bedrockruntime.NewFromConfig(awsCfg), model, cfg), nil
}

// newWithAPI assembles a Client around an injected Converse implementation.
func newWithAPI(api converseAPI, model string, cfg *clientConfig) *Client {
	c := &Client{api: api, model: model}
	c.handler = c.coreResponse
	for i := len(cfg.chatMiddleware) - 1; i >= 0; i-- {
		c.handler = cfg.chatMiddleware[i](c.handler)
	}
	return c
}

// FromDescriptor is an [agentkit.ClientFactory] building a Client from a
// service descriptor: the deployment becomes the model identifier and the
// descriptor's region, when set, overrides the AWS default chain.
func FromDescriptor(ctx context.Context, desc agentkit.ServiceDescriptor) (agentkit.ChatClient, error) {
	var opts []Option
	if desc.Region != "" {
		opts = append(opts, WithRegion(desc.Region))
	}
	return New(ctx, desc.Deployment, opts...)
}

// Response sends a non-streaming Converse request and returns the
// complete response.
func (c *Client) Response(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	input, err := buildConverseInput(messages, opts, c.model)
	if err != nil {
		return nil, err
	}

	output, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, mapAPIError(err)
	}

	return parseConverseOutput(output)
}

// StreamResponse sends a ConverseStream request and returns a stream of
// incremental updates.
func (c *Client) StreamResponse(ctx context.Context, messages []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	input, err := buildConverseInput(messages, opts, c.model)
	if err != nil {
		return nil, err
	}

	output, err := c.api.ConverseStream(ctx, &bedrockruntime.ConverseStreamInput{
		ModelId:         input.ModelId,
		Messages:        input.Messages,
		System:          input.System,
		InferenceConfig: input.InferenceConfig,
		ToolConfig:      input.ToolConfig,
	})
	if err != nil {
		return nil, mapAPIError(err)
	}

	eventStream := output.GetStream()
	return agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- agentkit.ChatResponseUpdate) error {
		defer eventStream.Close()
		return produceUpdates(ctx, eventStream.Events(), eventStream.Err, ch)
	}), nil
}

// produceUpdates converts Converse stream events into response updates
// until the event channel closes, the context ends, or errFn reports a
// stream failure.
func produceUpdates(ctx context.Context, events <-chan types.ConverseStreamOutput, errFn func() error, ch chan<- agentkit.ChatResponseUpdate) error {
	for evt := range events {
		update := updateFromStreamEvent(evt)
		if update == nil {
			continue
		}
		select {
		case ch <- *update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := errFn(); err != nil {
		return mapAPIError(err)
	}
	return nil
}
