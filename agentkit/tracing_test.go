// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/trace/noop"

	"github.com/microsoft/agentkit/agentkit"
)

func TestTracingMiddleware_PassesResponseThrough(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			return &agentkit.ChatResponse{
				Messages: []agentkit.Message{agentkit.NewAssistantMessage("traced")},
				Usage:    agentkit.UsageDetails{InputTokens: 4, OutputTokens: 2, TotalTokens: 6},
			}, nil
		},
	}

	tracer := noop.NewTracerProvider().Tracer("test")
	agent := newTestAgent(t, client,
		agentkit.WithAgentMiddleware(agentkit.TracingMiddleware(tracer)),
	)

	resp, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Message().Text() != "traced" {
		t.Errorf("text = %q", resp.Message().Text())
	}
	if resp.Usage.TotalTokens != 6 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestTracingMiddleware_PassesErrorThrough(t *testing.T) {
	boom := errors.New("model exploded")
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			return nil, boom
		},
	}

	tracer := noop.NewTracerProvider().Tracer("test")
	agent := newTestAgent(t, client,
		agentkit.WithAgentMiddleware(agentkit.TracingMiddleware(tracer)),
	)

	_, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestTracingMiddleware_NilTracerUsesGlobal(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agentkit.Message, opts *agentkit.ChatOptions) (*agentkit.ChatResponse, error) {
			return &agentkit.ChatResponse{
				Messages: []agentkit.Message{agentkit.NewAssistantMessage("ok")},
			}, nil
		},
	}
	agent := newTestAgent(t, client,
		agentkit.WithAgentMiddleware(agentkit.TracingMiddleware(nil)),
	)

	if _, err := agent.Run(context.Background(), []agentkit.Message{agentkit.NewUserMessage("hi")}); err != nil {
		t.Fatalf("run: %v", err)
	}
}
