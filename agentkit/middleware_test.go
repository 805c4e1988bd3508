// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/microsoft/agentkit/agentkit"
)

func TestChainMiddleware_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := agentkit.AgentMiddleware(func(next agentkit.AgentHandler) agentkit.AgentHandler {
		return func(ctx context.Context, req *agentkit.AgentRequest) (*agentkit.AgentResponse, error) {
			order = append(order, "mw1-before")
			resp, err := next(ctx, req)
			order = append(order, "mw1-after")
			return resp, err
		}
	})

	mw2 := agentkit.AgentMiddleware(func(next agentkit.AgentHandler) agentkit.AgentHandler {
		return func(ctx context.Context, req *agentkit.AgentRequest) (*agentkit.AgentResponse, error) {
			order = append(order, "mw2-before")
			resp, err := next(ctx, req)
			order = append(order, "mw2-after")
			return resp, err
		}
	})

	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			return &agentkit.ChatResponse{
				Messages: []agentkit.Message{agentkit.NewAssistantMessage("ok")},
			}, nil
		},
	}

	agent := newTestAgent(t, client, agentkit.WithAgentMiddleware(mw1, mw2))
	_, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// First middleware should be outermost
	expected := []string{"mw1-before", "mw2-before", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("order = %v, want %v", order, expected)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q", i, order[i], v)
		}
	}
}

func TestChatMiddleware_WrapsEveryRoundTrip(t *testing.T) {
	chatCalls := 0
	chatMw := agentkit.ChatMiddleware(func(next agentkit.ChatHandler) agentkit.ChatHandler {
		return func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			chatCalls++
			return next(ctx, msgs, opts)
		}
	})

	tool := agentkit.NewTool("noop", "Does nothing", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "done", nil
		},
	)

	clientCalls := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			clientCalls++
			if clientCalls == 1 {
				return &agentkit.ChatResponse{
					Messages: []agentkit.Message{{
						Role: agentkit.RoleAssistant,
						Contents: agentkit.Contents{
							&agentkit.FunctionCallContent{CallID: "c1", Name: "noop", Arguments: `{}`},
						},
					}},
				}, nil
			}
			return &agentkit.ChatResponse{
				Messages: []agentkit.Message{agentkit.NewAssistantMessage("finished")},
			}, nil
		},
	}

	agent := newTestAgent(t, client,
		agentkit.WithTools(tool),
		agentkit.WithChatMiddleware(chatMw),
	)

	_, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("go")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Tool loop makes two model calls; the middleware must see both.
	if chatCalls != 2 {
		t.Errorf("chat middleware saw %d calls, want 2", chatCalls)
	}
}

func TestStreamMiddleware_WrapsStreamOpen(t *testing.T) {
	var order []string

	mw1 := agentkit.StreamMiddleware(func(next agentkit.ChatStreamHandler) agentkit.ChatStreamHandler {
		return func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
			order = append(order, "mw1")
			return next(ctx, msgs, opts)
		}
	})
	mw2 := agentkit.StreamMiddleware(func(next agentkit.ChatStreamHandler) agentkit.ChatStreamHandler {
		return func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
			order = append(order, "mw2")
			return next(ctx, msgs, opts)
		}
	})

	client := &fragmentClient{fragments: []string{"ok"}}
	agent := newTestAgent(t, client, agentkit.WithStreamMiddleware(mw1, mw2))

	stream, err := agent.RunStream(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("run stream: %v", err)
	}
	defer stream.Close()

	// The chain runs once, at stream open, first middleware outermost.
	if len(order) != 2 || order[0] != "mw1" || order[1] != "mw2" {
		t.Fatalf("order = %v, want [mw1 mw2]", order)
	}

	resp, err := stream.FinalResponse(context.Background())
	if err != nil {
		t.Fatalf("final response: %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("text = %q, want ok", resp.Text())
	}
}

func TestStreamMiddleware_ShortCircuitSkipsClient(t *testing.T) {
	client := &openCountClient{fragmentClient: fragmentClient{fragments: []string{"never"}}}
	blocked := agentkit.StreamMiddleware(func(next agentkit.ChatStreamHandler) agentkit.ChatStreamHandler {
		return func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
			return nil, agentkit.ErrMiddleware
		}
	})

	agent := newTestAgent(t, client, agentkit.WithStreamMiddleware(blocked))
	_, err := agent.RunStream(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")})
	if err == nil {
		t.Fatal("expected error from short-circuiting middleware")
	}
	if client.opens != 0 {
		t.Errorf("client stream opened %d times, want 0", client.opens)
	}
}

// openCountClient counts stream opens before delegating to fragmentClient.
type openCountClient struct {
	fragmentClient
	opens int
}

func (c *openCountClient) StreamResponse(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	c.opens++
	return c.fragmentClient.StreamResponse(ctx, msgs, opts)
}

func TestFunctionMiddleware(t *testing.T) {
	var interceptedToolName string

	fnMw := agentkit.FunctionMiddleware(func(next agentkit.FunctionHandler) agentkit.FunctionHandler {
		return func(ctx context.Context, tool agentkit.Tool, args json.RawMessage) (any, error) {
			interceptedToolName = tool.Name()
			return next(ctx, tool, args)
		}
	})

	tool := agentkit.NewTool("echo", "Echoes input", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "echoed", nil
		},
	)

	callCount := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			callCount++
			if callCount == 1 {
				// First call: model requests tool call
				return &agentkit.ChatResponse{
					Messages: []agentkit.Message{{
						Role: agentkit.RoleAssistant,
						Contents: agentkit.Contents{
							&agentkit.FunctionCallContent{CallID: "c1", Name: "echo", Arguments: `{}`},
						},
					}},
				}, nil
			}
			// Second call: model returns final response
			return &agentkit.ChatResponse{
				Messages: []agentkit.Message{agentkit.NewAssistantMessage("done")},
			}, nil
		},
	}

	agent := newTestAgent(t, client,
		agentkit.WithTools(tool),
		agentkit.WithFunctionMiddleware(fnMw),
	)

	_, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("test")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if interceptedToolName != "echo" {
		t.Errorf("intercepted tool = %q, want echo", interceptedToolName)
	}
}

// mockClient implements ChatClient for testing.
type mockClient struct {
	responseFn func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error)
}

func (m *mockClient) Response(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
	return m.responseFn(ctx, msgs, opts)
}

func (m *mockClient) StreamResponse(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ResponseStream[agentkit.ChatResponseUpdate], error) {
	return agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- agentkit.ChatResponseUpdate) error {
		resp, err := m.responseFn(ctx, msgs, opts)
		if err != nil {
			return err
		}
		for _, msg := range resp.Messages {
			ch <- agentkit.ChatResponseUpdate{
				Contents: msg.Contents,
				Role:     msg.Role,
			}
		}
		return nil
	}), nil
}

// newTestAgent builds an agent bound directly to client, failing the test
// on configuration errors.
func newTestAgent(t *testing.T, client agentkit.ChatClient, opts ...agentkit.AgentOption) *agentkit.Agent {
	t.Helper()
	opts = append([]agentkit.AgentOption{agentkit.WithChatClient(client)}, opts...)
	agent, err := agentkit.NewAgent("test-agent", "You are helpful.", opts...)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	return agent
}
