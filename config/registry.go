// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/microsoft/agentkit/agentkit"
	"github.com/microsoft/agentkit/bedrock"
	"github.com/microsoft/agentkit/gemini"
	"github.com/microsoft/agentkit/openai"
)

// BuildRegistry constructs a [agentkit.ServiceRegistry] from a loaded
// Config, binding each service to the client factory its provider needs.
// Client construction stays lazy: nothing dials until the first run
// against a service.
func BuildRegistry(cfg *Config) (*agentkit.ServiceRegistry, error) {
	reg := agentkit.NewServiceRegistry()

	for _, svc := range cfg.Services {
		factory, err := clientFactory(svc)
		if err != nil {
			return nil, err
		}
		desc := agentkit.ServiceDescriptor{
			Provider:    svc.Provider,
			Endpoint:    svc.Endpoint,
			APIKey:      svc.APIKey,
			Deployment:  svc.DeploymentName,
			Region:      svc.Region,
			Temperature: svc.Temperature,
			TopP:        svc.TopP,
			NewClient:   factory,
		}
		if err := reg.Register(svc.ID, desc); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func clientFactory(svc ServiceConfig) (agentkit.ClientFactory, error) {
	switch svc.Provider {
	case "openai":
		return openai.FromDescriptor, nil
	case "azure":
		return azureFactory, nil
	case "bedrock":
		return bedrock.FromDescriptor, nil
	case "gemini":
		return gemini.FromDescriptor, nil
	default:
		return nil, fmt.Errorf("%w: service %q has unknown provider %q", agentkit.ErrInvalidConfiguration, svc.ID, svc.Provider)
	}
}

// azureFactory builds an Azure OpenAI client. With an API key it uses
// the api-key header; without one it falls back to the default Azure
// credential chain (managed identity, az login, environment).
func azureFactory(_ context.Context, desc agentkit.ServiceDescriptor) (agentkit.ChatClient, error) {
	baseURL := strings.TrimSuffix(desc.Endpoint, "/") + "/openai/v1"

	if desc.APIKey != "" {
		return openai.New(desc.APIKey,
			openai.WithModel(desc.Deployment),
			openai.WithBaseURL(baseURL),
			openai.WithHeaders(map[string]string{"api-key": desc.APIKey}),
		), nil
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: default azure credential: %v", agentkit.ErrAuth, err)
	}
	return openai.New("",
		openai.WithModel(desc.Deployment),
		openai.WithBaseURL(baseURL),
		openai.WithAzureCredential(cred),
	), nil
}
