// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"encoding/json"
)

// AgentHandler is the function signature for processing a full agent run.
// [Agent.Run] builds one from its configuration and passes it through the
// agent middleware chain.
type AgentHandler func(ctx context.Context, req *AgentRequest) (*AgentResponse, error)

// AgentRequest carries a run's inputs through the middleware pipeline.
type AgentRequest struct {
	Messages []Message
	Session  *Session
	Options  *ChatOptions
}

// AgentMiddleware wraps an [AgentHandler] to add cross-cutting behavior
// around a whole run. Middleware calls next to continue the chain, or
// returns early to short-circuit.
type AgentMiddleware func(next AgentHandler) AgentHandler

// ChatHandler is the function signature for one non-streaming model
// round-trip. In a tool-calling run every iteration of the loop is a
// separate ChatHandler call.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps a [ChatHandler] to add cross-cutting behavior,
// such as [RateLimitMiddleware].
type ChatMiddleware func(next ChatHandler) ChatHandler

// ChatStreamHandler is the function signature for opening a streaming chat
// request against a service. [ChatClient.StreamResponse] satisfies it.
type ChatStreamHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ResponseStream[ChatResponseUpdate], error)

// StreamMiddleware wraps a [ChatStreamHandler]. It runs when the stream is
// opened, before the first update arrives; it cannot observe individual
// updates.
type StreamMiddleware func(next ChatStreamHandler) ChatStreamHandler

// FunctionHandler is the function signature for invoking a tool.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps a [FunctionHandler] to add cross-cutting behavior.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chainAgentMiddleware applies middleware in order (first in list = outermost wrapper).
func chainAgentMiddleware(handler AgentHandler, mws ...AgentMiddleware) AgentHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// chainChatMiddleware applies middleware in order (first in list = outermost wrapper).
func chainChatMiddleware(handler ChatHandler, mws ...ChatMiddleware) ChatHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// chainStreamMiddleware applies middleware in order (first in list = outermost wrapper).
func chainStreamMiddleware(handler ChatStreamHandler, mws ...StreamMiddleware) ChatStreamHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}

// chainFunctionMiddleware applies middleware in order.
func chainFunctionMiddleware(handler FunctionHandler, mws ...FunctionMiddleware) FunctionHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
