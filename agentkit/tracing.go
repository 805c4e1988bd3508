// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware returns an [AgentMiddleware] that records each run as
// an OpenTelemetry span. Passing a nil tracer uses the globally registered
// tracer provider; span export is entirely the application's concern, the
// library never configures an SDK.
func TracingMiddleware(tracer trace.Tracer) AgentMiddleware {
	if tracer == nil {
		tracer = otel.Tracer("github.com/microsoft/agentkit")
	}
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			ctx, span := tracer.Start(ctx, "agent.run",
				trace.WithAttributes(
					attribute.Int("llm.messages_count", len(req.Messages)),
				),
			)
			defer span.End()

			start := time.Now()
			resp, err := next(ctx, req)

			span.SetAttributes(
				attribute.Int64("llm.duration_ms", time.Since(start).Milliseconds()),
				attribute.Bool("llm.success", err == nil),
			)

			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("llm.error", err.Error()))
				return nil, err
			}

			span.SetAttributes(
				attribute.Int("llm.usage.input_tokens", resp.Usage.InputTokens),
				attribute.Int("llm.usage.output_tokens", resp.Usage.OutputTokens),
				attribute.Int("llm.usage.total_tokens", resp.Usage.TotalTokens),
				attribute.Int("llm.response_messages", len(resp.Messages)),
			)
			return resp, nil
		}
	}
}
