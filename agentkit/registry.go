// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"fmt"
	"sync"
)

// ClientFactory constructs the [ChatClient] for a registered service.
// Factories may dial or authenticate, so they receive the caller's context.
type ClientFactory func(ctx context.Context, desc ServiceDescriptor) (ChatClient, error)

// ServiceDescriptor bundles the configuration identifying one remote
// AI service: which provider, where it lives, and how to authenticate.
// Descriptors are immutable once registered; [ServiceRegistry.Register]
// stores a copy and [ServiceRegistry.Resolve] returns a copy.
type ServiceDescriptor struct {
	// Provider names the backend kind, e.g. "azure", "openai", "bedrock",
	// "gemini". Informational to the registry itself; the config package
	// uses it to pick a client factory.
	Provider string

	// Endpoint is the service URL. Empty for providers whose SDK resolves
	// the endpoint itself.
	Endpoint string

	// APIKey authenticates requests. Leave empty for token-credential flows.
	APIKey string

	// Deployment is the model or deployment name requests should target.
	Deployment string

	// Region is the provider region, for providers that need one.
	Region string

	// Temperature and TopP, when set, seed the options returned by
	// [ServiceRegistry.Options].
	Temperature *float64
	TopP        *float64

	// NewClient builds the chat client for this service. Required for
	// [ServiceRegistry.Client]; optional when the registry is used for
	// descriptor lookup only.
	NewClient ClientFactory
}

// clone returns a copy with private allocations for pointer fields, so
// writes through a returned descriptor never reach the registry's copy.
func (d ServiceDescriptor) clone() ServiceDescriptor {
	cp := d
	if d.Temperature != nil {
		v := *d.Temperature
		cp.Temperature = &v
	}
	if d.TopP != nil {
		v := *d.TopP
		cp.TopP = &v
	}
	return cp
}

// serviceEntry is the registry's per-service record. The chat client is
// built lazily on first use and cached; a failed build caches nothing.
type serviceEntry struct {
	desc   ServiceDescriptor
	mu     sync.Mutex
	client ChatClient
}

// ServiceRegistry maps string identifiers to AI service descriptors and
// hands out chat clients and execution settings for them. A registry is
// created explicitly and passed to the components that need it; there is
// no package-level default instance.
//
// All methods are safe for concurrent use. Lookups are constant time and
// identifiers carry no ordering.
type ServiceRegistry struct {
	mu      sync.RWMutex
	entries map[string]*serviceEntry
}

// NewServiceRegistry creates an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{entries: make(map[string]*serviceEntry)}
}

// Register adds a service under the given identifier. Registering an
// identifier that is already present fails with [ErrDuplicateService];
// existing registrations are never replaced.
func (r *ServiceRegistry) Register(id string, desc ServiceDescriptor) error {
	if id == "" {
		return fmt.Errorf("%w: empty service identifier", ErrInvalidConfiguration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %q already registered", ErrDuplicateService, id)
	}
	r.entries[id] = &serviceEntry{desc: desc.clone()}
	return nil
}

// Resolve returns a copy of the descriptor registered under id.
// Unknown identifiers fail with [ErrUnknownService].
func (r *ServiceRegistry) Resolve(id string) (ServiceDescriptor, error) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return ServiceDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}
	return entry.desc.clone(), nil
}

// Client returns the chat client for the service registered under id,
// building it through the descriptor's factory on first use. The built
// client is cached per registration; construction runs at most once on
// success. A factory failure is returned as-is and leaves the entry
// untouched, so a later call may succeed.
func (r *ServiceRegistry) Client(ctx context.Context, id string) (ChatClient, error) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.client != nil {
		return entry.client, nil
	}
	if entry.desc.NewClient == nil {
		return nil, fmt.Errorf("%w: service %q has no client factory", ErrInvalidConfiguration, id)
	}
	client, err := entry.desc.NewClient(ctx, entry.desc.clone())
	if err != nil {
		return nil, err
	}
	entry.client = client
	return client, nil
}

// Options returns fresh execution settings for the service registered
// under id, seeded from its descriptor (model from Deployment, plus any
// descriptor-level temperature and top-p). Every call returns a new
// instance the caller may mutate freely.
func (r *ServiceRegistry) Options(id string) (*ChatOptions, error) {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}

	desc := entry.desc.clone()
	return &ChatOptions{
		ModelID:     desc.Deployment,
		Temperature: desc.Temperature,
		TopP:        desc.TopP,
	}, nil
}

// Services returns the registered identifiers in no particular order.
func (r *ServiceRegistry) Services() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
