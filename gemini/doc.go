// Copyright (c) Microsoft. All rights reserved.

// Package gemini provides an [agentkit.ChatClient] implementation for the
// Google Gemini API, using the official Google Gen AI SDK.
//
// Create a client with an API key and pass it to an agent:
//
//	client, err := gemini.New(ctx, os.Getenv("GEMINI_API_KEY"),
//	    gemini.WithModel("gemini-2.0-flash"),
//	)
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithChatClient(client),
//	)
//
// or register it with a service registry via [FromDescriptor]. Vertex AI
// deployments authenticate through Application Default Credentials; select
// that backend with [WithBackend]:
//
//	client, err := gemini.New(ctx, "",
//	    gemini.WithBackend(genai.BackendVertexAI),
//	    gemini.WithModel("gemini-2.0-flash"),
//	)
//
// The client supports synchronous and streaming responses, tool calling,
// and inline and referenced media content.
package gemini
