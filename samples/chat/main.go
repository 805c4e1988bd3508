// Copyright (c) Microsoft. All rights reserved.

// Command chat demonstrates a multi-turn conversational agent with tool
// use, built on a service registry loaded from the environment.
//
// Usage with OpenAI:
//
//	export API_KEY=sk-...
//	export DEPLOYMENT_NAME=gpt-4o
//	go run .
//
// Usage with Azure OpenAI / AI Foundry (omit API_KEY to authenticate with
// the default Azure credential chain):
//
//	export ENDPOINT=https://<resource>.openai.azure.com
//	export API_KEY=<your-key>
//	export DEPLOYMENT_NAME=gpt-4o
//	go run .
//
// Optional: set REDIS_ADDR to persist conversation history in Redis, and
// DEBUG for verbose logging. Prefix a message with "stream " to stream
// the reply.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/config"
	"github.com/microsoft/agentkit/redisstore"
)

func main() {
	if os.Getenv("DEBUG") != "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Load configuration: %v", err)
	}
	registry, err := config.BuildRegistry(cfg)
	if err != nil {
		log.Fatalf("Build registry: %v", err)
	}
	fmt.Printf("Using service %q (%s)\n", cfg.DefaultService, cfg.Services[0].Provider)

	// Define tools.
	weatherTool := agentkit.NewTypedTool("get_weather",
		"Get the current weather for a location.",
		func(ctx context.Context, args struct {
			Location string `json:"location" jsonschema:"description=City name or location,required"`
			Unit     string `json:"unit"     jsonschema:"description=Temperature unit,enum=celsius|fahrenheit"`
		}) (any, error) {
			// Simulated weather API
			unit := args.Unit
			if unit == "" {
				unit = "fahrenheit"
			}
			temp := 72
			if unit == "celsius" {
				temp = 22
			}
			return map[string]any{
				"location":    args.Location,
				"temperature": temp,
				"unit":        unit,
				"condition":   "sunny",
			}, nil
		},
	)

	timeTool := agentkit.NewTool("get_time",
		"Get the current time.",
		json.RawMessage(`{"type":"object","properties":{}}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "2025-01-15T10:30:00Z", nil
		},
	)

	agentOpts := []agentkit.AgentOption{
		agentkit.WithService(registry, cfg.DefaultService),
		agentkit.WithTools(weatherTool, timeTool),
		agentkit.WithAgentMiddleware(agentkit.LoggingMiddleware(slog.Default())),
	}

	// Conversation history lives in Redis when an address is configured,
	// in memory otherwise.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		agentOpts = append(agentOpts,
			agentkit.WithMessageStoreFactory(redisstore.Factory(rdb)))
		fmt.Printf("Persisting history to Redis at %s\n", addr)
	}

	agent, err := agentkit.NewAgent("assistant",
		"You are a helpful assistant. When asked about the weather, use the get_weather tool. When asked about the time, use the get_time tool. Keep responses concise.",
		agentOpts...,
	)
	if err != nil {
		log.Fatalf("Create agent: %v", err)
	}

	session := agent.NewSession()

	fmt.Println("Chat with the assistant (type 'quit' to exit, 'stream' prefix for streaming)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		ctx := context.Background()

		if strings.HasPrefix(input, "stream ") {
			input = strings.TrimPrefix(input, "stream ")
			streamResp, err := agent.RunStream(ctx,
				[]agentkit.Message{agentkit.NewUserMessage(input)},
				agentkit.WithSession(session),
			)
			if err != nil {
				log.Printf("Error: %v", err)
				continue
			}

			fmt.Print("Assistant: ")
			for {
				update, ok, err := streamResp.Next(ctx)
				if err != nil {
					log.Printf("\nStream error: %v", err)
					break
				}
				if !ok {
					break
				}
				fmt.Print(update.Text())
			}
			fmt.Println()
			streamResp.Close()
		} else {
			resp, err := agent.Run(ctx,
				[]agentkit.Message{agentkit.NewUserMessage(input)},
				agentkit.WithSession(session),
			)
			if err != nil {
				log.Printf("Error: %v", err)
				continue
			}

			fmt.Printf("Assistant: %s\n", resp.Text())
			if resp.Usage.TotalTokens > 0 {
				fmt.Printf("  [tokens: %d in, %d out]\n",
					resp.Usage.InputTokens, resp.Usage.OutputTokens)
			}
		}
		fmt.Println()
	}
}
