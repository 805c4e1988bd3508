// Copyright (c) Microsoft. All rights reserved.

// Package bedrock provides an [agentkit.ChatClient] implementation for
// AWS Bedrock via the Converse API, using the official AWS SDK for Go v2.
//
// Authentication follows the standard AWS credential chain (environment,
// shared config, instance roles). Create a client and pass it to an agent:
//
//	client, err := bedrock.New(ctx, "anthropic.claude-3-haiku-20240307-v1:0",
//	    bedrock.WithRegion("us-east-1"),
//	)
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithChatClient(client),
//	)
//
// or register it with a service registry via [FromDescriptor]:
//
//	reg.Register("claude", agentkit.ServiceDescriptor{
//	    Provider:   "bedrock",
//	    Region:     "us-east-1",
//	    Deployment: "anthropic.claude-3-haiku-20240307-v1:0",
//	    NewClient:  bedrock.FromDescriptor,
//	})
//
// The client supports synchronous and streaming responses, tool calling,
// inline images, and reasoning content where the model emits it.
package bedrock
