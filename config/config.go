// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/microsoft/agentkit/agentkit"
)

// ServiceConfig describes one AI service to register.
type ServiceConfig struct {
	ID             string   `yaml:"id"`
	Provider       string   `yaml:"provider"`
	Endpoint       string   `yaml:"endpoint"`
	APIKey         string   `yaml:"api_key"`
	DeploymentName string   `yaml:"deployment_name"`
	Region         string   `yaml:"region"`
	Temperature    *float64 `yaml:"temperature"`
	TopP           *float64 `yaml:"top_p"`
}

// Config is the loaded service configuration.
type Config struct {
	DefaultService string          `yaml:"default_service"`
	Services       []ServiceConfig `yaml:"services"`
}

// FromEnv builds a single-service Config from the process environment,
// loading a .env file first when one exists. PROVIDER defaults to "azure"
// when ENDPOINT is set and "openai" otherwise; SERVICE_ID defaults to
// "default". Missing required values fail with
// [agentkit.ErrInvalidConfiguration].
func FromEnv() (*Config, error) {
	// Missing .env is fine; the environment may be populated directly.
	_ = godotenv.Load()

	svc := ServiceConfig{
		ID:             os.Getenv("SERVICE_ID"),
		Provider:       os.Getenv("PROVIDER"),
		Endpoint:       os.Getenv("ENDPOINT"),
		APIKey:         os.Getenv("API_KEY"),
		DeploymentName: os.Getenv("DEPLOYMENT_NAME"),
		Region:         os.Getenv("REGION"),
	}
	if svc.ID == "" {
		svc.ID = "default"
	}
	if svc.Provider == "" {
		if svc.Endpoint != "" {
			svc.Provider = "azure"
		} else {
			svc.Provider = "openai"
		}
	}

	if err := validateService(svc); err != nil {
		return nil, err
	}

	return &Config{
		DefaultService: svc.ID,
		Services:       []ServiceConfig{svc},
	}, nil
}

// LoadFile reads a YAML configuration file. ${VAR} references expand from
// the environment before parsing, and a service with an empty api_key
// falls back to the API_KEY environment variable.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read config file: %v", agentkit.ErrInvalidConfiguration, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config file: %v", agentkit.ErrInvalidConfiguration, err)
	}

	if len(cfg.Services) == 0 {
		return nil, fmt.Errorf("%w: config file declares no services", agentkit.ErrInvalidConfiguration)
	}
	for i := range cfg.Services {
		if cfg.Services[i].APIKey == "" {
			cfg.Services[i].APIKey = os.Getenv("API_KEY")
		}
		if err := validateService(cfg.Services[i]); err != nil {
			return nil, err
		}
	}
	if cfg.DefaultService == "" {
		cfg.DefaultService = cfg.Services[0].ID
	}

	return &cfg, nil
}

// validateService checks the fields each provider cannot work without.
// Azure services may omit the key (token credential auth), and Bedrock
// authenticates through the AWS credential chain.
func validateService(svc ServiceConfig) error {
	if svc.ID == "" {
		return fmt.Errorf("%w: service has no id", agentkit.ErrInvalidConfiguration)
	}
	if svc.DeploymentName == "" {
		return fmt.Errorf("%w: service %q has no deployment name", agentkit.ErrInvalidConfiguration, svc.ID)
	}

	switch svc.Provider {
	case "azure":
		if svc.Endpoint == "" {
			return fmt.Errorf("%w: azure service %q requires an endpoint", agentkit.ErrInvalidConfiguration, svc.ID)
		}
	case "openai", "gemini":
		if svc.APIKey == "" {
			return fmt.Errorf("%w: %s service %q requires an api key", agentkit.ErrInvalidConfiguration, svc.Provider, svc.ID)
		}
	case "bedrock":
		// Credentials come from the AWS default chain.
	default:
		return fmt.Errorf("%w: service %q has unknown provider %q", agentkit.ErrInvalidConfiguration, svc.ID, svc.Provider)
	}
	return nil
}
