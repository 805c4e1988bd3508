// Copyright (c) Microsoft. All rights reserved.

package agentkit

import "context"

// ChatClient is the contract between agents and a model backend. The
// provider packages (openai, bedrock, gemini) implement it, and a
// [ServiceRegistry] hands out instances built from registered service
// descriptors. Implementations must be safe for concurrent use; an agent
// may share one client across runs.
type ChatClient interface {
	// Response sends the messages and blocks until the model's complete
	// answer is available.
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

	// StreamResponse opens a streaming request and returns the updates as
	// they arrive. The method value satisfies [ChatStreamHandler].
	StreamResponse(ctx context.Context, messages []Message, opts *ChatOptions) (*ResponseStream[ChatResponseUpdate], error)
}
