// Copyright (c) Microsoft. All rights reserved.

// Command multiagent analyzes a clothing image and recommends where to
// buy similar items, using two agents that share one service registry and
// one conversation transcript.
//
// The "analyst" agent lists the clothing items it sees in the image; its
// answer is appended to the transcript by the caller, and the "shopper"
// agent then produces shopping advice over the combined history. The
// orchestration is deliberately explicit: agents never write to the
// transcript themselves.
//
// Usage:
//
//	export API_KEY=sk-...                    # or an Azure ENDPOINT + key
//	export DEPLOYMENT_NAME=gpt-4o
//	go run . https://example.com/outfit.jpg
//	go run . ./photos/outfit.png             # local files are inlined
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/config"
)

const (
	analystInstructions = "You are an image analyst. List every clothing item visible in the image, one per line, with its color and style. Be factual and concise; do not recommend anything."
	shopperInstructions = "You are a shopping assistant. Given a list of clothing items, suggest for each one where similar items could be bought, with an estimated price range. Keep it short and practical."
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: multiagent <image-url-or-path>")
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Load configuration: %v", err)
	}
	registry, err := config.BuildRegistry(cfg)
	if err != nil {
		log.Fatalf("Build registry: %v", err)
	}

	// Both agents resolve the same registered service; a second Register
	// under the same identifier is rejected rather than overwriting.
	desc, err := registry.Resolve(cfg.DefaultService)
	if err != nil {
		log.Fatalf("Resolve service: %v", err)
	}
	if err := registry.Register(cfg.DefaultService, desc); err != nil {
		fmt.Printf("Service %q already registered, reusing it (%v)\n\n", cfg.DefaultService, err)
	}

	// The analyst should describe, not improvise: pin its sampling low.
	analystOpts, err := registry.Options(cfg.DefaultService)
	if err != nil {
		log.Fatalf("Service options: %v", err)
	}
	lowTemp := 0.2
	analystOpts.Temperature = &lowTemp

	analyst, err := agentkit.NewAgent("analyst", analystInstructions,
		agentkit.WithService(registry, cfg.DefaultService),
		agentkit.WithDefaultOptions(analystOpts),
	)
	if err != nil {
		log.Fatalf("Create analyst: %v", err)
	}

	shopper, err := agentkit.NewAgent("shopper", shopperInstructions,
		agentkit.WithService(registry, cfg.DefaultService),
	)
	if err != nil {
		log.Fatalf("Create shopper: %v", err)
	}

	imageContent, err := imageContentFrom(os.Args[1])
	if err != nil {
		log.Fatalf("Load image: %v", err)
	}

	ctx := context.Background()

	// One transcript, owned here. Each agent reads it; the caller appends.
	transcript := []agentkit.Message{
		agentkit.NewMessage(agentkit.RoleUser,
			&agentkit.TextContent{Text: "What clothing items do you see in this image?"},
			imageContent,
		),
	}

	analysis, err := analyst.Run(ctx, transcript)
	if err != nil {
		log.Fatalf("Analyst run: %v", err)
	}
	fmt.Printf("Analyst:\n%s\n\n", analysis.Text())

	transcript = append(transcript, *analysis.Message())
	transcript = append(transcript,
		agentkit.NewUserMessage("Where can I buy similar items, and at what price?"))

	advice, err := shopper.Run(ctx, transcript)
	if err != nil {
		log.Fatalf("Shopper run: %v", err)
	}
	fmt.Printf("Shopper:\n%s\n", advice.Text())
}

// imageContentFrom turns an argument into image content: URLs stay
// references, local files are read and inlined as a base64 data URI.
func imageContentFrom(arg string) (agentkit.Content, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return &agentkit.URIContent{URI: arg, MediaType: mediaType(arg)}, nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	mt := mediaType(arg)
	uri := "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data)
	return &agentkit.DataContent{URI: uri, MediaType: mt}, nil
}

func mediaType(path string) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}
	return "image/jpeg"
}
