// Copyright (c) Microsoft. All rights reserved.

// Package config loads AI service configuration from the environment or
// a YAML file and builds a ready-to-use [agentkit.ServiceRegistry].
//
// The quickest path is environment-based, with .env convenience loading:
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := config.BuildRegistry(cfg)
//
// Recognized environment keys are ENDPOINT, API_KEY, DEPLOYMENT_NAME,
// plus optional PROVIDER, SERVICE_ID and REGION. Multi-service setups use
// a YAML file instead:
//
//	default_service: chat
//	services:
//	  - id: chat
//	    provider: azure
//	    endpoint: https://example.openai.azure.com
//	    api_key: ${API_KEY}
//	    deployment_name: gpt-4o
//	    temperature: 0.7
//	  - id: titles
//	    provider: bedrock
//	    region: us-east-1
//	    deployment_name: anthropic.claude-3-haiku-20240307-v1:0
//
// ${VAR} references in the file expand from the environment, and an empty
// api_key falls back to the API_KEY variable. An Azure service left
// without a key authenticates with the default Azure credential chain.
package config
