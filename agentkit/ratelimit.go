// Copyright (c) Microsoft. All rights reserved.

package agentkit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware returns a [ChatMiddleware] that paces upstream calls
// through the given limiter. Each request blocks in limiter.Wait until a
// token is available or the context is done; a cancelled wait fails the
// request, it is never retried. A nil limiter disables pacing.
func RateLimitMiddleware(limiter *rate.Limiter) ChatMiddleware {
	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("%w: rate limit: %w", ErrMiddleware, err)
				}
			}
			return next(ctx, messages, opts)
		}
	}
}

// RateLimitStreamMiddleware returns a [StreamMiddleware] that paces streaming
// runs through the same limiter. One token is charged per stream, before the
// request is opened; the updates themselves are not throttled. Share a single
// limiter between this and [RateLimitMiddleware] to pace both paths under one
// budget. A nil limiter disables pacing.
func RateLimitStreamMiddleware(limiter *rate.Limiter) StreamMiddleware {
	return func(next ChatStreamHandler) ChatStreamHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ResponseStream[ChatResponseUpdate], error) {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("%w: rate limit: %w", ErrMiddleware, err)
				}
			}
			return next(ctx, messages, opts)
		}
	}
}
