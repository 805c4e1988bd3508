// Copyright (c) Microsoft. All rights reserved.

// Package agentkit provides the core types for building AI agents in Go:
// a registry of named AI services, an agent factory with validation, and
// complete, multi-message and streaming invocation over any registered
// backend, with tool calling, middleware pipelines, and session management.
//
// # Quick Start
//
// Register a service, then create and run an agent bound to it:
//
//	registry := agentkit.NewServiceRegistry()
//	err := registry.Register("chat", agentkit.ServiceDescriptor{
//	    Provider:   "openai",
//	    APIKey:     os.Getenv("API_KEY"),
//	    Deployment: "gpt-4o",
//	    NewClient: func(ctx context.Context, desc agentkit.ServiceDescriptor) (agentkit.ChatClient, error) {
//	        return openai.New(desc.APIKey, openai.WithModel(desc.Deployment)), nil
//	    },
//	})
//
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithService(registry, "chat"),
//	)
//
//	resp, err := agent.Run(ctx, []agentkit.Message{
//	    agentkit.NewUserMessage("Hello!"),
//	})
//	fmt.Println(resp.Message().Text())
//
// The config package builds registries from environment variables or YAML
// files with the provider factories already wired.
//
// # Architecture
//
// The package is organized around these key abstractions:
//
//   - [ServiceRegistry]: maps string identifiers to AI service descriptors,
//     hands out chat clients and execution settings. Created explicitly and
//     passed by reference; registration rejects duplicate identifiers.
//   - [Agent]: immutable handle combining a name, instructions and a backend
//     binding; construction validates and never touches the network.
//   - [ChatClient]: interface for LLM backends (implemented by the openai,
//     bedrock and gemini packages).
//   - [Tool]: callable functions exposed to the model via function calling.
//   - [Content]: sealed interface whose concrete types represent message parts.
//   - [Session]: opt-in multi-turn conversation state (service-managed or
//     local); without one, transcripts stay entirely in the caller's hands.
//   - [ResponseStream]: generic pull-based iterator for streaming responses.
//   - Middleware: three levels (Agent, Chat, Function) for cross-cutting concerns.
//
// # Invocation modes
//
// A run returns every emitted message in order; simple agents emit one,
// tool-calling agents may emit several. [AgentResponse.Message] gives the
// final answer, [Agent.RunStream] the same answer as incremental fragments:
//
//	stream, err := agent.RunStream(ctx, msgs)
//	defer stream.Close()
//	for {
//	    update, ok, err := stream.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Print(update.Text())
//	}
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"description=City name,required"`
//	    Unit     string `json:"unit"     jsonschema:"enum=celsius|fahrenheit"`
//	}
//
//	tool := agentkit.NewTypedTool("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (any, error) {
//	        return fetchWeather(args.Location, args.Unit)
//	    },
//	)
//
// # Middleware
//
// Add cross-cutting behavior at three levels:
//
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithService(registry, "chat"),
//	    agentkit.WithAgentMiddleware(agentkit.LoggingMiddleware(logger)),
//	    agentkit.WithChatMiddleware(agentkit.RateLimitMiddleware(limiter)),
//	)
//
// # Sessions
//
// Use sessions for multi-turn conversations:
//
//	session := agent.NewSession()
//	resp1, _ := agent.Run(ctx, msgs1, agentkit.WithSession(session))
//	resp2, _ := agent.Run(ctx, msgs2, agentkit.WithSession(session))
package agentkit
