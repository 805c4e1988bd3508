// Copyright (c) Microsoft. All rights reserved.

// Package openai provides an [agentkit.ChatClient] implementation for the
// OpenAI Chat Completions API, including Azure OpenAI and Azure AI Foundry
// endpoints that speak the same protocol.
//
// Create a client and pass it to an agent, either directly:
//
//	client := openai.New(os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithChatClient(client),
//	)
//
// or through a service registry, which builds the client lazily on the
// first run:
//
//	reg := agentkit.NewServiceRegistry()
//	reg.Register("chat", agentkit.ServiceDescriptor{
//	    Provider:   "openai",
//	    APIKey:     os.Getenv("OPENAI_API_KEY"),
//	    Deployment: "gpt-4o",
//	    NewClient:  openai.FromDescriptor,
//	})
//
// The client supports both synchronous and streaming responses,
// tool/function calling, and all standard ChatOptions.
//
// # Configuration
//
// Use functional options to configure the client:
//
//   - [WithModel]: set the default model
//   - [WithBaseURL]: override the API endpoint (e.g., Azure OpenAI)
//   - [WithOrganization]: set the OpenAI organization header
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//   - [WithAzureCredential]: authenticate with an Azure token credential
//     instead of an API key
//
// # Testing
//
// The client uses an unexported transport interface internally.
// For testing, provide a mock http.Client via [WithHTTPClient]
// with a custom RoundTripper.
package openai
