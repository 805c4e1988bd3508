// Copyright (c) Microsoft. All rights reserved.

package agentkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/microsoft/agentkit/agentkit"
)

func TestErrorHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"execution is agent", agentkit.ErrExecution, agentkit.ErrAgent},
		{"invalid configuration is agent", agentkit.ErrInvalidConfiguration, agentkit.ErrAgent},
		{"session is agent", agentkit.ErrSession, agentkit.ErrAgent},
		{"session mode locked is session", agentkit.ErrSessionModeLocked, agentkit.ErrSession},
		{"session mode locked is agent", agentkit.ErrSessionModeLocked, agentkit.ErrAgent},
		{"duplicate service is registry", agentkit.ErrDuplicateService, agentkit.ErrRegistry},
		{"unknown service is registry", agentkit.ErrUnknownService, agentkit.ErrRegistry},
		{"content filter is service", agentkit.ErrContentFilter, agentkit.ErrService},
		{"invalid request is service", agentkit.ErrInvalidRequest, agentkit.ErrService},
		{"invalid response is service", agentkit.ErrInvalidResponse, agentkit.ErrService},
		{"auth is service", agentkit.ErrAuth, agentkit.ErrService},
		{"tool execution is tool", agentkit.ErrToolExecution, agentkit.ErrTool},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.target) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.target)
			}
		})
	}
}

func TestErrorHierarchy_Distinct(t *testing.T) {
	// Registry errors are not agent errors and vice versa.
	if errors.Is(agentkit.ErrUnknownService, agentkit.ErrAgent) {
		t.Error("ErrUnknownService should not match ErrAgent")
	}
	if errors.Is(agentkit.ErrInvalidConfiguration, agentkit.ErrRegistry) {
		t.Error("ErrInvalidConfiguration should not match ErrRegistry")
	}
	if errors.Is(agentkit.ErrDuplicateService, agentkit.ErrUnknownService) {
		t.Error("sibling sentinels should not match each other")
	}
}

func TestServiceError(t *testing.T) {
	err := &agentkit.ServiceError{
		StatusCode: 429,
		Code:       "rate_limit_exceeded",
		Message:    "Too many requests",
		Err:        agentkit.ErrService,
	}

	wrapped := fmt.Errorf("request failed: %w", err)

	var svcErr *agentkit.ServiceError
	if !errors.As(wrapped, &svcErr) {
		t.Fatal("errors.As failed to extract ServiceError")
	}
	if svcErr.StatusCode != 429 {
		t.Errorf("status = %d, want 429", svcErr.StatusCode)
	}
	if !errors.Is(wrapped, agentkit.ErrService) {
		t.Error("wrapped ServiceError should match ErrService")
	}

	msg := err.Error()
	want := `service error 429 (rate_limit_exceeded): Too many requests`
	if msg != want {
		t.Errorf("Error() = %q, want %q", msg, want)
	}
}

func TestServiceError_NoCode(t *testing.T) {
	err := &agentkit.ServiceError{StatusCode: 500, Message: "internal"}
	if err.Error() != "service error 500: internal" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestToolError(t *testing.T) {
	err := &agentkit.ToolError{
		ToolName: "get_weather",
		Message:  "city not found",
		Err:      agentkit.ErrToolExecution,
	}

	wrapped := fmt.Errorf("loop iteration 2: %w", err)

	var toolErr *agentkit.ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As failed to extract ToolError")
	}
	if toolErr.ToolName != "get_weather" {
		t.Errorf("tool = %q", toolErr.ToolName)
	}
	if !errors.Is(wrapped, agentkit.ErrTool) {
		t.Error("wrapped ToolError should match ErrTool")
	}
	if err.Error() != `tool "get_weather": city not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}
