// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Agent is the top-level conversational agent: a name, an instruction
// string, and a binding to a chat backend, composed with tools, middleware
// and session management. Agents are immutable after construction; each
// run is a pure function of the agent and the transcript it is given,
// plus whatever the remote service answers.
//
// Create one with [NewAgent] and functional options:
//
//	agent, err := agentkit.NewAgent("assistant", "You are helpful.",
//	    agentkit.WithService(registry, "chat"),
//	    agentkit.WithTools(weatherTool),
//	)
//
// Construction is purely local: binding to a registry resolves the service
// descriptor immediately, but no connection or remote call happens before
// the first run.
type Agent struct {
	id                  string
	name                string
	description         string
	instructions        string
	client              ChatClient
	registry            *ServiceRegistry
	serviceID           string
	tools               []Tool
	defaultOptions      *ChatOptions
	messageStoreFactory func() MessageStore
	agentMiddleware     []AgentMiddleware
	chatMiddleware      []ChatMiddleware
	streamMiddleware    []StreamMiddleware
	functionMiddleware  []FunctionMiddleware
	invocationConfig    InvocationConfig
}

// AgentOption configures an [Agent] via [NewAgent].
type AgentOption func(*Agent)

// WithChatClient binds the agent directly to a [ChatClient].
func WithChatClient(client ChatClient) AgentOption {
	return func(a *Agent) { a.client = client }
}

// WithService binds the agent to a service registered in reg under serviceID.
// The descriptor is resolved during [NewAgent]; the chat client itself is
// built through the registry on first run.
func WithService(reg *ServiceRegistry, serviceID string) AgentOption {
	return func(a *Agent) {
		a.registry = reg
		a.serviceID = serviceID
	}
}

// WithDescription sets the agent's description.
func WithDescription(desc string) AgentOption {
	return func(a *Agent) { a.description = desc }
}

// WithTools adds tools to the agent's default tool set.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithDefaultOptions sets default [ChatOptions] for all requests, typically
// obtained from [ServiceRegistry.Options] and adjusted by the caller.
func WithDefaultOptions(opts *ChatOptions) AgentOption {
	return func(a *Agent) { a.defaultOptions = opts }
}

// WithMessageStoreFactory sets a factory for creating message stores
// when a session is initialized in local mode.
func WithMessageStoreFactory(f func() MessageStore) AgentOption {
	return func(a *Agent) { a.messageStoreFactory = f }
}

// WithAgentMiddleware adds [AgentMiddleware] to the agent pipeline.
func WithAgentMiddleware(mws ...AgentMiddleware) AgentOption {
	return func(a *Agent) { a.agentMiddleware = append(a.agentMiddleware, mws...) }
}

// WithChatMiddleware adds [ChatMiddleware] around every model round-trip
// of non-streaming runs, including each iteration of the tool loop.
func WithChatMiddleware(mws ...ChatMiddleware) AgentOption {
	return func(a *Agent) { a.chatMiddleware = append(a.chatMiddleware, mws...) }
}

// WithStreamMiddleware adds [StreamMiddleware] around the stream-opening
// request of every [Agent.RunStream] call.
func WithStreamMiddleware(mws ...StreamMiddleware) AgentOption {
	return func(a *Agent) { a.streamMiddleware = append(a.streamMiddleware, mws...) }
}

// WithFunctionMiddleware adds [FunctionMiddleware] to the tool invocation pipeline.
func WithFunctionMiddleware(mws ...FunctionMiddleware) AgentOption {
	return func(a *Agent) { a.functionMiddleware = append(a.functionMiddleware, mws...) }
}

// WithInvocationConfig overrides the default [InvocationConfig] for the
// function calling loop.
func WithInvocationConfig(cfg InvocationConfig) AgentOption {
	return func(a *Agent) { a.invocationConfig = cfg }
}

// NewAgent creates an Agent with the given name and instructions.
// Both are required: an empty name or empty instructions fails with
// [ErrInvalidConfiguration], as does an agent with no backend binding.
// Exactly one of [WithChatClient] or [WithService] must be given; a
// service binding whose identifier is not registered fails immediately
// with [ErrUnknownService].
func NewAgent(name, instructions string, opts ...AgentOption) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: agent name must not be empty", ErrInvalidConfiguration)
	}
	if instructions == "" {
		return nil, fmt.Errorf("%w: agent instructions must not be empty", ErrInvalidConfiguration)
	}

	a := &Agent{
		id:               uuid.NewString(),
		name:             name,
		instructions:     instructions,
		invocationConfig: DefaultInvocationConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}

	switch {
	case a.client == nil && a.registry == nil:
		return nil, fmt.Errorf("%w: agent %q has no chat client or service binding", ErrInvalidConfiguration, name)
	case a.client != nil && a.registry != nil:
		return nil, fmt.Errorf("%w: agent %q has both a chat client and a service binding", ErrInvalidConfiguration, name)
	case a.registry != nil:
		if _, err := a.registry.Resolve(a.serviceID); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Instructions returns the agent's system instructions.
func (a *Agent) Instructions() string { return a.instructions }

// ServiceID returns the bound service identifier, or empty when the agent
// was given a chat client directly.
func (a *Agent) ServiceID() string { return a.serviceID }

// RunOption configures a single [Agent.Run] or [Agent.RunStream] call.
type RunOption func(*runConfig)

type runConfig struct {
	session *Session
	tools   []Tool
	options *ChatOptions
}

// WithSession attaches a [Session] for multi-turn conversation. The run
// loads prior history from the session and persists its own request and
// response messages back to it; this is the only path on which the
// library appends to conversation state.
func WithSession(s *Session) RunOption {
	return func(c *runConfig) { c.session = s }
}

// WithRunTools provides per-call tool overrides (merged with agent defaults).
func WithRunTools(tools ...Tool) RunOption {
	return func(c *runConfig) { c.tools = tools }
}

// WithRunOptions provides per-call [ChatOptions] overrides.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(c *runConfig) { c.options = opts }
}

// Run sends messages to the agent and returns the complete response.
// The input slice is read, never written: history assembly copies into
// fresh slices. Messages holds everything the run emitted in order;
// use [AgentResponse.Message] for the final answer.
func (a *Agent) Run(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponse, error) {
	cfg := a.buildRunConfig(opts)

	// Build the inner handler
	handler := a.buildHandler(cfg)

	// Wrap with agent middleware
	wrapped := chainAgentMiddleware(handler, a.agentMiddleware...)

	req := &AgentRequest{
		Messages: messages,
		Session:  cfg.session,
		Options:  cfg.options,
	}

	return wrapped(ctx, req)
}

// RunStream sends messages to the agent and returns a streaming response:
// a lazy, finite sequence of updates whose text fragments concatenate to
// the complete answer. Cancelling ctx or calling Close stops the producer
// at the next fragment boundary.
//
// With [WithSession], the request and the merged response are persisted to
// the session once the stream is consumed to completion (via Next or
// FinalResponse). A stream abandoned mid-way persists nothing.
func (a *Agent) RunStream(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponseStream, error) {
	cfg := a.buildRunConfig(opts)

	client, err := a.resolveClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	chatOpts := a.prepareChatOptions(cfg)
	allMessages, err := a.prepareMessages(ctx, messages, cfg, chatOpts)
	if err != nil {
		return nil, err
	}

	open := chainStreamMiddleware(client.StreamResponse, a.streamMiddleware...)
	chatStream, err := open(ctx, allMessages, chatOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	// Map ChatResponseUpdate to AgentResponseUpdate, remembering the
	// conversation ID for session persistence. The producer goroutine
	// writes conversationID strictly before the stream is exhausted, so
	// onFinal reads it safely.
	var conversationID string
	agentStream := MapStream(ctx, chatStream, func(u ChatResponseUpdate) AgentResponseUpdate {
		if u.ConversationID != "" {
			conversationID = u.ConversationID
		}
		return AgentResponseUpdate{
			Contents:   u.Contents,
			Role:       u.Role,
			AgentID:    a.id,
			ResponseID: u.ResponseID,
			Usage:      u.Usage,
			Raw:        u.Raw,
		}
	})

	stream := NewAgentResponseStream(agentStream)
	if session := cfg.session; session != nil {
		stream.onFinal = func(resp *AgentResponse) {
			chatResp := &ChatResponse{
				Messages:       resp.Messages,
				ConversationID: conversationID,
				Usage:          resp.Usage,
			}
			if err := a.updateSession(ctx, session, messages, chatResp); err != nil {
				slog.WarnContext(ctx, "failed to update session", "error", err)
			}
		}
	}
	return stream, nil
}

// NewSession creates a new [Session] pre-configured for this agent.
func (a *Agent) NewSession() *Session {
	var store MessageStore
	if a.messageStoreFactory != nil {
		store = a.messageStoreFactory()
	} else {
		store = NewInMemoryStore()
	}
	return NewSession(WithSessionStore(store))
}

// resolveClient returns the bound chat client, building it through the
// registry on first use. The registry caches the built client, so the
// agent itself stays free of mutable state.
func (a *Agent) resolveClient(ctx context.Context) (ChatClient, error) {
	if a.client != nil {
		return a.client, nil
	}
	return a.registry.Client(ctx, a.serviceID)
}

func (a *Agent) buildRunConfig(opts []RunOption) *runConfig {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (a *Agent) prepareChatOptions(cfg *runConfig) *ChatOptions {
	// Start with default options
	opts := MergeChatOptions(a.defaultOptions, cfg.options)

	// Merge tools: agent defaults + per-call overrides
	allTools := make([]Tool, 0, len(a.tools)+len(cfg.tools))
	allTools = append(allTools, a.tools...)
	allTools = append(allTools, cfg.tools...)
	if len(allTools) > 0 {
		opts.Tools = allTools
	}

	// Set instructions
	if opts.Instructions != "" {
		opts.Instructions = a.instructions + "\n" + opts.Instructions
	} else {
		opts.Instructions = a.instructions
	}

	return opts
}

func (a *Agent) prepareMessages(ctx context.Context, messages []Message, cfg *runConfig, opts *ChatOptions) ([]Message, error) {
	var allMessages []Message

	// Load history from session store
	if cfg.session != nil {
		if store := cfg.session.Store(); store != nil {
			history, err := store.ListMessages(ctx)
			if err != nil {
				return nil, fmt.Errorf("load session history: %w", err)
			}
			allMessages = append(allMessages, history...)
		}
		// Set conversation ID from session
		if sid := cfg.session.ServiceID(); sid != "" {
			opts.ConversationID = sid
		}
	}

	allMessages = append(allMessages, messages...)

	// Prepend system instructions
	allMessages = PrependInstructions(allMessages, opts.Instructions)

	return allMessages, nil
}

// chatHandler wraps the client's Response in the agent's chat middleware.
func (a *Agent) chatHandler(client ChatClient) ChatHandler {
	handler := func(ctx context.Context, msgs []Message, opts *ChatOptions) (*ChatResponse, error) {
		return client.Response(ctx, msgs, opts)
	}
	return chainChatMiddleware(handler, a.chatMiddleware...)
}

func (a *Agent) buildHandler(cfg *runConfig) AgentHandler {
	return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
		client, err := a.resolveClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}

		chatOpts := a.prepareChatOptions(cfg)
		allMessages, err := a.prepareMessages(ctx, req.Messages, cfg, chatOpts)
		if err != nil {
			return nil, err
		}

		slog.DebugContext(ctx, "agent run",
			"agent_id", a.id,
			"agent_name", a.name,
			"message_count", len(allMessages),
			"tool_count", len(chatOpts.Tools),
		)

		// If tools are present, use the function invocation loop
		call := a.chatHandler(client)
		var chatResp *ChatResponse
		if len(chatOpts.Tools) > 0 {
			chatResp, err = invokeFunctions(ctx, call, allMessages, chatOpts, a.invocationConfig, a.functionMiddleware)
		} else {
			chatResp, err = call(ctx, allMessages, chatOpts)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}

		// Update session
		if cfg.session != nil {
			if err := a.updateSession(ctx, cfg.session, req.Messages, chatResp); err != nil {
				slog.WarnContext(ctx, "failed to update session", "error", err)
			}
		}

		return &AgentResponse{
			Messages:   chatResp.Messages,
			ResponseID: chatResp.ResponseID,
			AgentID:    a.id,
			Usage:      chatResp.Usage,
			Extra:      chatResp.Extra,
			Raw:        chatResp.Raw,
		}, nil
	}
}

func (a *Agent) updateSession(ctx context.Context, session *Session, request []Message, resp *ChatResponse) error {
	store := session.Store()
	if store == nil {
		// A conversation ID in the response means state lives upstream
		if resp.ConversationID != "" {
			return session.SetServiceID(resp.ConversationID)
		}
		// Initialize local store
		if a.messageStoreFactory != nil {
			store = a.messageStoreFactory()
		} else {
			store = NewInMemoryStore()
		}
		if err := session.SetStore(store); err != nil {
			return err
		}
	}

	// Persist messages
	if err := store.AddMessages(ctx, request); err != nil {
		return err
	}
	return store.AddMessages(ctx, resp.Messages)
}
